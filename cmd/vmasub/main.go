package main

import "github.com/forPelevin/vmasub/internal/cli"

func main() {
	cli.Main()
}
