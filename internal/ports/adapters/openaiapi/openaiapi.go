package openaiapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/text/language"
)

const (
	DefaultASRModel       = "whisper-1"
	DefaultTranslateModel = "gpt-4o-mini"
	DefaultBatchSize      = 40

	defaultRequestTimeout = 5 * time.Minute
)

type Config struct {
	APIKey  string
	BaseURL string

	ASRModel    string
	ASRLanguage string

	TranslateModel string
	TargetLang     language.Tag
	BatchSize      int

	MaxRetries int
	Timeout    time.Duration
	HTTPClient *http.Client
	Logf       func(format string, args ...any)
}

// Adapter talks to an OpenAI-compatible API. It transcribes audio with the
// Whisper endpoint and translates transcript lines with chat completions.
type Adapter struct {
	client openai.Client
	key    string

	asrModel    string
	asrLanguage string

	translateModel string
	target         language.Tag
	batchSize      int

	timeout time.Duration
	logf    func(format string, args ...any)
}

func New(cfg Config) *Adapter {
	if cfg.ASRModel == "" {
		cfg.ASRModel = DefaultASRModel
	}
	if cfg.TranslateModel == "" {
		cfg.TranslateModel = DefaultTranslateModel
	}
	if cfg.TargetLang == language.Und {
		cfg.TargetLang = language.MustParse("zh-TW")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Logf == nil {
		cfg.Logf = func(string, ...any) {}
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(ResolveBaseURL(cfg.BaseURL)+"/"),
		option.WithHTTPClient(cfg.HTTPClient),
		option.WithMaxRetries(cfg.MaxRetries),
	)
	return &Adapter{
		client:         client,
		key:            cfg.APIKey,
		asrModel:       cfg.ASRModel,
		asrLanguage:    cfg.ASRLanguage,
		translateModel: cfg.TranslateModel,
		target:         cfg.TargetLang,
		batchSize:      cfg.BatchSize,
		timeout:        cfg.Timeout,
		logf:           cfg.Logf,
	}
}

// requestError keeps the SDK error reachable for errors.As while printing a
// short, secret-free message.
type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return e.err }

func (a *Adapter) wrapErr(op string, reqCtx context.Context, err error) error {
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return &requestError{msg: fmt.Sprintf("openai %s timeout after %s", op, a.timeout), err: err}
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := fmt.Sprintf("openai %s status %d: %s", op, apiErr.StatusCode,
			truncate(redactSecrets(apiErr.Message, a.key), 400))
		return &requestError{msg: msg, err: err}
	}
	msg := fmt.Sprintf("openai %s: %s", op, truncate(redactSecrets(err.Error(), a.key), 400))
	return &requestError{msg: msg, err: err}
}

// isFatal reports errors that retrying line by line cannot fix.
func isFatal(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return true
		}
	}
	return false
}

func extractJSONArray(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("openai: empty content")
	}

	// Strip markdown code fences.
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	start := strings.Index(t, "[")
	end := strings.LastIndex(t, "]")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}
	return "", fmt.Errorf("openai: could not locate JSON array in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
	skKeyRE       = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{8,}\b`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = skKeyRE.ReplaceAllString(out, "[REDACTED]")
	return out
}
