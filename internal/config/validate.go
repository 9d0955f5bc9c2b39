package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/forPelevin/vmasub/internal/logging"
	"github.com/forPelevin/vmasub/internal/ports/adapters/openaiapi"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateASR(); err != nil {
		return err
	}
	if err := c.validateTranslate(); err != nil {
		return err
	}
	if err := c.validateOpenAI(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Watch.DebounceMS < 0 {
		return errors.New("watch.debounce_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateASR() error {
	switch c.ASR.Backend {
	case BackendOpenAI:
		if strings.TrimSpace(c.ASR.Model) == "" {
			return errors.New("asr.model must be set for the openai backend")
		}
	case BackendWhisperCPP:
		if c.ASR.WhisperModel == "" {
			return errors.New("asr.whisper_model must be set for the whispercpp backend")
		}
	default:
		return fmt.Errorf("asr.backend %q is not supported (want %s|%s)", c.ASR.Backend, BackendOpenAI, BackendWhisperCPP)
	}
	return nil
}

func (c *Config) validateTranslate() error {
	if !c.Translate.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Translate.Model) == "" {
		return errors.New("translate.model must be set when translation is enabled")
	}
	if _, err := language.Parse(c.Translate.TargetLang); err != nil {
		return fmt.Errorf("translate.target_lang %q is not a BCP 47 tag: %w", c.Translate.TargetLang, err)
	}
	if c.Translate.BatchSize <= 0 {
		return errors.New("translate.batch_size must be > 0")
	}
	return nil
}

func (c *Config) validateOpenAI() error {
	if !c.UsesOpenAI() {
		return nil
	}
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		return errors.New("OPENAI_API_KEY is required (set it in .env or openai.api_key)")
	}
	if c.OpenAI.MaxRetries < 0 {
		return errors.New("openai.max_retries must be >= 0")
	}
	if c.OpenAI.TimeoutSeconds <= 0 {
		return errors.New("openai.timeout_seconds must be > 0")
	}
	return openaiapi.ValidateBaseURL(c.OpenAI.BaseURL, c.OpenAI.AllowedHosts)
}

func (c *Config) validateMedia() error {
	if strings.TrimSpace(c.Media.FFmpeg) == "" || strings.TrimSpace(c.Media.FFprobe) == "" {
		return errors.New("media.ffmpeg and media.ffprobe must be set")
	}
	if c.Media.ChunkSeconds < 0 {
		return errors.New("media.chunk_seconds must be >= 0")
	}
	if c.Media.WorkDir == "" {
		return errors.New("media.work_dir must be set")
	}
	return nil
}

func (c *Config) validateOutput() error {
	switch c.Output.Format {
	case FormatSRT, FormatASS:
		return nil
	default:
		return fmt.Errorf("output.format %q is not supported (want %s|%s)", c.Output.Format, FormatSRT, FormatASS)
	}
}
