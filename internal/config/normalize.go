package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.ASR.Backend = strings.ToLower(strings.TrimSpace(c.ASR.Backend))
	c.ASR.Language = strings.TrimSpace(c.ASR.Language)
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Translate.TargetLang = strings.TrimSpace(c.Translate.TargetLang)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.normalizeExtensions()
	return c.normalizePaths()
}

// Normalize trims and lowercases enum fields, expands ~ and makes paths
// absolute. Load calls it; call it again after applying overrides.
func (c *Config) Normalize() error { return c.normalize() }

func (c *Config) normalizePaths() error {
	fields := []struct {
		name string
		ptr  *string
	}{
		{"translate.cache_path", &c.Translate.CachePath},
		{"media.work_dir", &c.Media.WorkDir},
		{"output.dir", &c.Output.Dir},
		{"log.file", &c.Log.File},
		{"asr.whisper_model", &c.ASR.WhisperModel},
	}
	for _, f := range fields {
		v, err := expandPath(strings.TrimSpace(*f.ptr))
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.ptr = v
	}
	return nil
}

func (c *Config) normalizeExtensions() {
	seen := make(map[string]struct{}, len(c.Watch.Extensions))
	out := make([]string, 0, len(c.Watch.Extensions))
	for _, ext := range c.Watch.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	c.Watch.Extensions = out
}
