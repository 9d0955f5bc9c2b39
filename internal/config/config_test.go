package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/forPelevin/vmasub/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, k := range []string{
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_ALLOWED_HOSTS",
		"VMASUB_ASR_MODEL", "VMASUB_TRANSLATE_MODEL", "VMASUB_TARGET_LANG", "VMASUB_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	home := isolateEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, filepath.Join(home, ".config", "vmasub", "config.toml"), resolved)

	assert.Equal(t, config.BackendOpenAI, cfg.ASR.Backend)
	assert.Equal(t, "whisper-1", cfg.ASR.Model)
	assert.True(t, cfg.Translate.Enabled)
	assert.Equal(t, language.MustParse("zh-TW"), cfg.TargetTag())
	assert.Equal(t, 5*time.Minute, cfg.ChunkSize())
	assert.Equal(t, config.FormatSRT, cfg.Output.Format)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.True(t, filepath.IsAbs(cfg.Translate.CachePath))
	assert.True(t, filepath.IsAbs(cfg.Media.WorkDir))
	assert.Equal(t, []string{".mp4", ".mov", ".mkv", ".avi", ".webm"}, cfg.Watch.Extensions)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "vmasub.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[asr]
backend = "WhisperCPP"
whisper_model = "~/models/ggml-small.bin"

[translate]
target_lang = "ja"
batch_size = 10

[output]
format = "ass"
dir = "~/subs"

[watch]
extensions = ["MP4", "ts", ".mp4"]
debounce_ms = 500
`), 0o644))
	t.Setenv("VMASUB_TARGET_LANG", "zh-Hant")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_ALLOWED_HOSTS", "api.openai.com, proxy.example.com")

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)

	home, _ := os.UserHomeDir()
	assert.Equal(t, config.BackendWhisperCPP, cfg.ASR.Backend)
	assert.Equal(t, filepath.Join(home, "models", "ggml-small.bin"), cfg.ASR.WhisperModel)
	assert.Equal(t, "zh-Hant", cfg.Translate.TargetLang)
	assert.Equal(t, 10, cfg.Translate.BatchSize)
	assert.Equal(t, config.FormatASS, cfg.Output.Format)
	assert.Equal(t, filepath.Join(home, "subs"), cfg.Output.Dir)
	assert.Equal(t, []string{".mp4", ".ts"}, cfg.Watch.Extensions)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
	assert.Equal(t, []string{"api.openai.com", "proxy.example.com"}, cfg.OpenAI.AllowedHosts)
	require.NoError(t, cfg.Validate())
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "vmasub.toml")
	require.NoError(t, os.WriteFile(path, []byte("[output]\nformt = \"srt\"\n"), 0o644))

	_, _, _, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "formt")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolateEnv(t)
	_, _, _, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		c := config.Default()
		c.OpenAI.APIKey = "sk-test"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"defaults", func(*config.Config) {}, ""},
		{"missing key", func(c *config.Config) { c.OpenAI.APIKey = "" }, "OPENAI_API_KEY is required"},
		{"local only needs no key", func(c *config.Config) {
			c.OpenAI.APIKey = ""
			c.ASR.Backend = config.BackendWhisperCPP
			c.Translate.Enabled = false
		}, ""},
		{"bad backend", func(c *config.Config) { c.ASR.Backend = "vosk" }, "asr.backend"},
		{"bad format", func(c *config.Config) { c.Output.Format = "vtt" }, "output.format"},
		{"bad target", func(c *config.Config) { c.Translate.TargetLang = "not a tag!" }, "translate.target_lang"},
		{"zero batch", func(c *config.Config) { c.Translate.BatchSize = 0 }, "translate.batch_size"},
		{"http base url", func(c *config.Config) { c.OpenAI.BaseURL = "http://api.openai.com/v1" }, "https is required"},
		{"host not allowed", func(c *config.Config) { c.OpenAI.BaseURL = "https://evil.example.com/v1" }, "OPENAI_ALLOWED_HOSTS"},
		{"allowed proxy", func(c *config.Config) {
			c.OpenAI.BaseURL = "https://proxy.example.com/v1"
			c.OpenAI.AllowedHosts = []string{"proxy.example.com"}
		}, ""},
		{"negative chunk", func(c *config.Config) { c.Media.ChunkSeconds = -1 }, "media.chunk_seconds"},
		{"bad log level", func(c *config.Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyEnv_IgnoresBlankValues(t *testing.T) {
	c := config.Default()
	c.ApplyEnv(func(k string) string {
		if k == "VMASUB_TRANSLATE_MODEL" {
			return "gpt-4o"
		}
		return "  "
	})
	assert.Equal(t, "gpt-4o", c.Translate.Model)
	assert.Equal(t, "zh-TW", c.Translate.TargetLang)
	assert.Equal(t, "https://api.openai.com/v1", c.OpenAI.BaseURL)
}
