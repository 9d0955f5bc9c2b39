package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gofrs/flock"
	"golang.org/x/text/language"

	"github.com/forPelevin/vmasub/internal/config"
	"github.com/forPelevin/vmasub/internal/ports"
	"github.com/forPelevin/vmasub/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/vmasub/internal/ports/adapters/openaiapi"
	"github.com/forPelevin/vmasub/internal/ports/adapters/transcache"
	"github.com/forPelevin/vmasub/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/vmasub/internal/usecase"
)

type Config struct {
	InputPath string
	// OutDir receives the subtitle file. If empty, it is written next to the
	// input.
	OutDir    string
	Format    usecase.Format
	Overwrite bool
	KeepWork  bool
	ChunkSize time.Duration
	Logf      func(format string, args ...any)

	// CacheDir is the base directory for extracted audio.
	// If empty, defaults to ".cache".
	CacheDir string

	FFmpegPath  string
	FFprobePath string

	ASRBackend   string
	ASRModel     string
	ASRLanguage  string
	WhisperBin   string
	WhisperModel string

	Translate            bool
	TranslateModel       string
	TargetLang           language.Tag
	BatchSize            int
	TranslationCachePath string

	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIAllowedHosts []string
	OpenAIMaxRetries   int
	OpenAITimeout      time.Duration
}

func (c Config) usesOpenAI() bool {
	return c.ASRBackend == config.BackendOpenAI || c.Translate
}

// Validate checks the per-run input. Backend, format, credentials and base
// URL rules belong to config.Validate, which the caller runs first.
func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("input is empty")
	}
	st, err := os.Stat(c.InputPath)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if st.IsDir() {
		return fmt.Errorf("input %s is a directory", c.InputPath)
	}
	return nil
}

// Run generates subtitles for cfg.InputPath and returns the written path.
func Run(ctx context.Context, cfg Config) (string, error) {
	if cfg.Logf == nil {
		cfg.Logf = func(string, ...any) {}
	}

	deps, closeDeps, err := buildDeps(cfg)
	if err != nil {
		return "", err
	}
	defer closeDeps()

	return run(ctx, cfg, deps)
}

func buildDeps(cfg Config) (usecase.Deps, func(), error) {
	closeFn := func() {}
	deps := usecase.Deps{
		Media: ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath),
	}

	var api *openaiapi.Adapter
	if cfg.usesOpenAI() {
		api = openaiapi.New(openaiapi.Config{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			ASRModel:       cfg.ASRModel,
			ASRLanguage:    cfg.ASRLanguage,
			TranslateModel: cfg.TranslateModel,
			TargetLang:     cfg.TargetLang,
			BatchSize:      cfg.BatchSize,
			MaxRetries:     cfg.OpenAIMaxRetries,
			Timeout:        cfg.OpenAITimeout,
			Logf:           cfg.Logf,
		})
	}

	if cfg.ASRBackend == config.BackendWhisperCPP {
		deps.ASR = whispercpp.New(cfg.WhisperBin, cfg.WhisperModel, cfg.ASRLanguage)
	} else {
		deps.ASR = api
	}

	if cfg.Translate {
		deps.Translator = api
		if cfg.TranslationCachePath != "" {
			store, err := transcache.Open(cfg.TranslationCachePath)
			if err != nil {
				return usecase.Deps{}, closeFn, err
			}
			closeFn = func() { _ = store.Close() }
			cfg.Logf("translation cache: %s", store.Path())
			model := cfg.TranslateModel
			if model == "" {
				model = openaiapi.DefaultTranslateModel
			}
			deps.Translator = transcache.Wrap(api, store, cfg.TargetLang.String(), model, cfg.Logf)
		}
	}
	return deps, closeFn, nil
}

func run(ctx context.Context, cfg Config, deps usecase.Deps) (string, error) {
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	outPath := OutputPath(cfg.InputPath, cfg.OutDir, cfg.Format)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}

	// The lock file stays on disk: unlinking it would let a later run lock a
	// fresh inode while another still holds the old one.
	lockPath := outPath + ".lock"
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return "", fmt.Errorf("acquire lock %s: %w", lockPath, err)
	}
	if !locked {
		return "", fmt.Errorf("another vmasub run is writing %s", outPath)
	}
	defer lock.Unlock()

	if !cfg.Overwrite {
		if _, err := os.Stat(outPath); err == nil {
			return "", fmt.Errorf("%s already exists (use --overwrite to replace it)", outPath)
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat output: %w", err)
		}
	}

	baseCache := cfg.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}
	workDir := filepath.Join(baseCache, "runs", workDirName(cfg.InputPath, outPath))
	logf("preparing workspace")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", err
	}
	logf("work dir: %s", workDir)
	if !cfg.KeepWork {
		defer os.RemoveAll(workDir)
	}

	uc := usecase.New(deps)
	res, err := uc.Run(ctx, usecase.Input{
		InputPath: cfg.InputPath,
		ChunkSize: cfg.ChunkSize,
		Format:    cfg.Format,
		WorkDir:   workDir,
		Logf:      logf,
	})
	if err != nil {
		return "", err
	}

	if err := writeFileAtomic(outPath, []byte(res.Document), 0o644); err != nil {
		return "", err
	}
	logf("subtitles written (%d segments, %d chunks): %s", len(res.Segments), res.Chunks, outPath)
	return outPath, nil
}

// OutputPath places <stem>.<ext> in outDir, or next to the input when outDir
// is empty.
func OutputPath(input, outDir string, format usecase.Format) string {
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, stem+format.Ext())
}

// workDirName is keyed on the output path, which the run holds the lock
// for, so runs that may proceed concurrently never share a work dir.
func workDirName(input, outPath string) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	return fmt.Sprintf("%s-%s", hash(outPath), name)
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// ensure adapters implement ports
var _ ports.MediaTool = (*ffmpeg.Adapter)(nil)
var _ ports.ASR = (*whispercpp.Adapter)(nil)
var _ ports.ASR = (*openaiapi.Adapter)(nil)
var _ ports.Translator = (*openaiapi.Adapter)(nil)
var _ ports.Translator = (*transcache.Translator)(nil)
