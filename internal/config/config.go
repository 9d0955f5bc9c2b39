package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// ASR selects and tunes the speech-to-text backend.
type ASR struct {
	Backend      string `toml:"backend"`
	Model        string `toml:"model"`
	WhisperBin   string `toml:"whisper_bin"`
	WhisperModel string `toml:"whisper_model"`
	Language     string `toml:"language"`
}

// Translate controls the secondary subtitle line.
type Translate struct {
	Enabled    bool   `toml:"enabled"`
	Model      string `toml:"model"`
	TargetLang string `toml:"target_lang"`
	BatchSize  int    `toml:"batch_size"`
	CachePath  string `toml:"cache_path"`
}

// OpenAI holds the API connection shared by transcription and translation.
type OpenAI struct {
	APIKey         string   `toml:"api_key"`
	BaseURL        string   `toml:"base_url"`
	AllowedHosts   []string `toml:"allowed_hosts"`
	MaxRetries     int      `toml:"max_retries"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Media configures ffmpeg and the scratch area for extracted audio.
type Media struct {
	FFmpeg       string `toml:"ffmpeg"`
	FFprobe      string `toml:"ffprobe"`
	ChunkSeconds int    `toml:"chunk_seconds"`
	WorkDir      string `toml:"work_dir"`
}

type Output struct {
	Format    string `toml:"format"`
	Dir       string `toml:"dir"`
	Overwrite bool   `toml:"overwrite"`
	KeepWork  bool   `toml:"keep_work"`
}

type Log struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type Watch struct {
	Extensions []string `toml:"extensions"`
	DebounceMS int      `toml:"debounce_ms"`
}

// Config is the full vmasub configuration.
type Config struct {
	ASR       ASR       `toml:"asr"`
	Translate Translate `toml:"translate"`
	OpenAI    OpenAI    `toml:"openai"`
	Media     Media     `toml:"media"`
	Output    Output    `toml:"output"`
	Log       Log       `toml:"log"`
	Watch     Watch     `toml:"watch"`
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/vmasub/config.toml (or the
// platform equivalent).
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "vmasub", "config.toml"), nil
}

// Load builds a config from defaults, the TOML file at path (or the default
// location when path is empty) and the environment. It does not validate, so
// callers can apply flag overrides first.
//
// An explicit path must exist. A missing default file is not an error.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		if err := cfg.decodeFile(resolved); err != nil {
			return nil, "", false, err
		}
	}

	cfg.ApplyEnv(os.Getenv)
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func (c *Config) decodeFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	dec := toml.NewDecoder(file)
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: unknown keys:\n%s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// ApplyEnv overlays non-empty environment values onto c.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	if v := getenv("OPENAI_ALLOWED_HOSTS"); strings.TrimSpace(v) != "" {
		c.OpenAI.AllowedHosts = splitList(v)
	}
	set(&c.ASR.Model, "VMASUB_ASR_MODEL")
	set(&c.Translate.Model, "VMASUB_TRANSLATE_MODEL")
	set(&c.Translate.TargetLang, "VMASUB_TARGET_LANG")
	set(&c.Log.Level, "VMASUB_LOG_LEVEL")
}

// ChunkSize is the audio window sent to the ASR backend per request. Zero
// means the whole file is sent at once.
func (c *Config) ChunkSize() time.Duration {
	return time.Duration(c.Media.ChunkSeconds) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.OpenAI.TimeoutSeconds) * time.Second
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// TargetTag returns the parsed translation target. Validate guarantees it
// parses when translation is enabled.
func (c *Config) TargetTag() language.Tag {
	tag, err := language.Parse(c.Translate.TargetLang)
	if err != nil {
		return language.Und
	}
	return tag
}

// UsesOpenAI reports whether any enabled stage calls the OpenAI API.
func (c *Config) UsesOpenAI() bool {
	return c.ASR.Backend == BackendOpenAI || c.Translate.Enabled
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
