package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forPelevin/vmasub/internal/config"
	"github.com/forPelevin/vmasub/internal/logging"
	"github.com/forPelevin/vmasub/internal/pipeline"
	"github.com/forPelevin/vmasub/internal/usecase"
	"github.com/forPelevin/vmasub/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "watch <dir>",
		Short:        "Subtitle every new video dropped into a folder",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd, args[0])
		},
	}
}

func watch(cmd *cobra.Command, dir string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closer, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer closer.Close()

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	handle := func(ctx context.Context, path string) {
		entry := log.WithField("input", filepath.Base(path))
		if skip, existing := hasSubtitle(cfg, path); skip {
			entry.Infof("skipping, %s already exists", existing)
			return
		}

		pcfg := pipelineConfig(cfg, path, runLogger(log, path))
		if err := pcfg.Validate(); err != nil {
			entry.WithError(err).Error("cannot process file")
			return
		}
		written, err := pipeline.Run(ctx, pcfg)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			entry.WithError(err).Error("subtitle generation failed")
			return
		}
		printWritten(out, written)
	}

	mon := watcher.NewFolderMonitor(absDir, cfg.Watch.Extensions, cfg.Debounce(), handle,
		logging.Logf(log.WithField("dir", absDir)))
	return mon.Run(ctx)
}

// hasSubtitle reports whether path already has an output that would be
// refused without --overwrite.
func hasSubtitle(cfg *config.Config, path string) (bool, string) {
	if cfg.Output.Overwrite {
		return false, ""
	}
	existing := pipeline.OutputPath(path, cfg.Output.Dir, usecase.Format(cfg.Output.Format))
	if _, err := os.Stat(existing); err == nil {
		return true, existing
	}
	return false, ""
}
