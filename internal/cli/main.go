package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCmd()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "vmasub <video>",
		Short:        "Generate bilingual subtitles for a local video",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}
	root.SilenceErrors = true

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (default $XDG_CONFIG_HOME/vmasub/config.toml)")
	pf.String("log-level", "", "Log level: debug|info|warn|error")

	// Generation flags are shared with watch; unset flags keep the config value.
	pf.String("out-dir", "", "Write subtitles here instead of next to the video")
	pf.String("format", "", "Subtitle format: srt|ass")
	pf.Bool("overwrite", false, "Replace an existing subtitle file")
	pf.Bool("keep-work", false, "Keep extracted audio under the cache dir")
	pf.Bool("no-translate", false, "Only write the transcript line")
	pf.String("asr", "", "Speech-to-text backend: openai|whispercpp")
	pf.Duration("chunk", 0, "Audio chunk length sent per transcription request, e.g. 5m")
	pf.String("target-lang", "", "Translation target as a BCP 47 tag, e.g. zh-TW")

	root.AddCommand(newWatchCmd(), newInspectCmd())
	return root
}
