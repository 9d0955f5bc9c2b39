package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/forPelevin/vmasub/internal/config"
	"github.com/forPelevin/vmasub/internal/logging"
	"github.com/forPelevin/vmasub/internal/pipeline"
	"github.com/forPelevin/vmasub/internal/usecase"
)

const runTimeout = 3 * time.Hour

func run(cmd *cobra.Command, input string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, closer, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer closer.Close()

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	pcfg := pipelineConfig(cfg, absIn, runLogger(log, absIn))
	if err := pcfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	out, err := pipeline.Run(ctx, pcfg)
	if err != nil {
		return err
	}
	printWritten(cmd.OutOrStdout(), out)
	return nil
}

// loadConfig merges the config file and environment with explicitly set
// flags, then validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	applyFlags(cmd, cfg)
	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("log-level") {
		cfg.Log.Level, _ = fs.GetString("log-level")
	}
	if fs.Changed("out-dir") {
		cfg.Output.Dir, _ = fs.GetString("out-dir")
	}
	if fs.Changed("format") {
		cfg.Output.Format, _ = fs.GetString("format")
	}
	if fs.Changed("overwrite") {
		cfg.Output.Overwrite, _ = fs.GetBool("overwrite")
	}
	if fs.Changed("keep-work") {
		cfg.Output.KeepWork, _ = fs.GetBool("keep-work")
	}
	if fs.Changed("no-translate") {
		off, _ := fs.GetBool("no-translate")
		cfg.Translate.Enabled = !off
	}
	if fs.Changed("asr") {
		cfg.ASR.Backend, _ = fs.GetString("asr")
	}
	if fs.Changed("chunk") {
		d, _ := fs.GetDuration("chunk")
		cfg.Media.ChunkSeconds = chunkSeconds(d)
	}
	if fs.Changed("target-lang") {
		cfg.Translate.TargetLang, _ = fs.GetString("target-lang")
	}
}

// chunkSeconds rounds a positive duration up to whole seconds so a
// sub-second value never reads as 0, which disables chunking. Negative
// durations stay negative for validation to reject.
func chunkSeconds(d time.Duration) int {
	switch {
	case d < 0:
		return -1
	case d == 0:
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

func pipelineConfig(cfg *config.Config, input string, logf func(string, ...any)) pipeline.Config {
	return pipeline.Config{
		InputPath: input,
		OutDir:    cfg.Output.Dir,
		Format:    usecase.Format(cfg.Output.Format),
		Overwrite: cfg.Output.Overwrite,
		KeepWork:  cfg.Output.KeepWork,
		ChunkSize: cfg.ChunkSize(),
		CacheDir:  cfg.Media.WorkDir,
		Logf:      logf,

		FFmpegPath:  cfg.Media.FFmpeg,
		FFprobePath: cfg.Media.FFprobe,

		ASRBackend:   cfg.ASR.Backend,
		ASRModel:     cfg.ASR.Model,
		ASRLanguage:  cfg.ASR.Language,
		WhisperBin:   cfg.ASR.WhisperBin,
		WhisperModel: cfg.ASR.WhisperModel,

		Translate:            cfg.Translate.Enabled,
		TranslateModel:       cfg.Translate.Model,
		TargetLang:           cfg.TargetTag(),
		BatchSize:            cfg.Translate.BatchSize,
		TranslationCachePath: cfg.Translate.CachePath,

		OpenAIAPIKey:       cfg.OpenAI.APIKey,
		OpenAIBaseURL:      cfg.OpenAI.BaseURL,
		OpenAIAllowedHosts: cfg.OpenAI.AllowedHosts,
		OpenAIMaxRetries:   cfg.OpenAI.MaxRetries,
		OpenAITimeout:      cfg.RequestTimeout(),
	}
}

// runLogger tags every line of one video's run with a fresh run id.
func runLogger(log *logrus.Logger, input string) func(string, ...any) {
	return logging.Logf(log.WithFields(logrus.Fields{
		"run_id": uuid.NewString(),
		"input":  filepath.Base(input),
	}))
}

func printWritten(w io.Writer, path string) {
	c := statusColor(w, color.FgGreen, color.Bold)
	fmt.Fprintf(w, "%s %s\n", c.Sprint("wrote"), path)
}

func statusColor(w io.Writer, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if shouldColorize(w) {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func shouldColorize(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
