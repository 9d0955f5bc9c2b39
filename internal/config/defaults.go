package config

import (
	"time"

	"github.com/forPelevin/vmasub/internal/domain/chunks"
	"github.com/forPelevin/vmasub/internal/usecase"
)

const (
	BackendOpenAI     = "openai"
	BackendWhisperCPP = "whispercpp"

	FormatSRT = string(usecase.FormatSRT)
	FormatASS = string(usecase.FormatASS)

	defaultASRModel        = "whisper-1"
	defaultWhisperBin      = ".cache/bin/whisper.cpp"
	defaultWhisperModel    = ".cache/models/ggml-base.bin"
	defaultTranslateModel  = "gpt-4o-mini"
	defaultTargetLang      = "zh-TW"
	defaultBatchSize       = 40
	defaultCachePath       = ".cache/translations.db"
	defaultBaseURL         = "https://api.openai.com/v1"
	defaultMaxRetries      = 2
	defaultTimeoutSeconds  = 300
	defaultChunkSeconds    = int(chunks.DefaultSize / time.Second)
	defaultWorkDir         = ".cache"
	defaultLogLevel        = "info"
	defaultWatchDebounceMS = 2000
)

var defaultWatchExtensions = []string{".mp4", ".mov", ".mkv", ".avi", ".webm"}

// Default returns a Config populated with built-in defaults.
func Default() Config {
	return Config{
		ASR: ASR{
			Backend:      BackendOpenAI,
			Model:        defaultASRModel,
			WhisperBin:   defaultWhisperBin,
			WhisperModel: defaultWhisperModel,
		},
		Translate: Translate{
			Enabled:    true,
			Model:      defaultTranslateModel,
			TargetLang: defaultTargetLang,
			BatchSize:  defaultBatchSize,
			CachePath:  defaultCachePath,
		},
		OpenAI: OpenAI{
			BaseURL:        defaultBaseURL,
			MaxRetries:     defaultMaxRetries,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Media: Media{
			FFmpeg:       "ffmpeg",
			FFprobe:      "ffprobe",
			ChunkSeconds: defaultChunkSeconds,
			WorkDir:      defaultWorkDir,
		},
		Output: Output{
			Format: FormatSRT,
		},
		Log: Log{
			Level: defaultLogLevel,
		},
		Watch: Watch{
			Extensions: append([]string(nil), defaultWatchExtensions...),
			DebounceMS: defaultWatchDebounceMS,
		},
	}
}
