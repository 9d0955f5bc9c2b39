package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/forPelevin/vmasub/internal/domain/subtitles"
)

const inspectTextWidth = 60

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "inspect <file.srt>",
		Short:        "Print the cues of an SRT file and report format problems",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(cmd.OutOrStdout(), args[0])
		},
	}
}

func inspect(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cues, err := subtitles.ParseSRT(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	fmt.Fprintln(w, renderCueTable(cues))

	issues := subtitles.Validate(cues)
	if len(issues) == 0 {
		c := statusColor(w, color.FgGreen)
		fmt.Fprintf(w, "%s %d cues\n", c.Sprint("ok"), len(cues))
		return nil
	}
	c := statusColor(w, color.FgYellow)
	for _, issue := range issues {
		fmt.Fprintf(w, "%s %s\n", c.Sprint("issue"), issue)
	}
	return fmt.Errorf("%s: %d issue(s) in %d cues", path, len(issues), len(cues))
}

func renderCueTable(cues []subtitles.Cue) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Start", "End", "Duration", "Text"})
	for _, c := range cues {
		tw.AppendRow(table.Row{
			strconv.Itoa(c.Index),
			subtitles.FormatSRTTime(c.Start),
			subtitles.FormatSRTTime(c.End),
			(c.End - c.Start).String(),
			text.Trim(strings.Join(c.Lines, " / "), inspectTextWidth),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}
