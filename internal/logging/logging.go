// Package logging configures the logrus logger shared by the CLI and bridges
// it to the printf-style hooks the pipeline components accept.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// ParseLevel maps a config level name to a logrus level. An empty name means
// info.
func ParseLevel(name string) (logrus.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return logrus.InfoLevel, nil
	case "debug", "verbose":
		return logrus.DebugLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", name)
	}
}

// New builds a logger writing to w. When logFile is set, output is also
// appended to that file; the returned closer releases it.
func New(w io.Writer, level, logFile string) (*logrus.Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetLevel(lvl)

	var closer io.Closer = nopCloser{}
	out := w
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(w, f)
		closer = f
	}
	log.SetOutput(out)
	return log, closer, nil
}

// Logf adapts an entry to the func(format, args...) hook used across the
// pipeline. Messages starting with "warning:" are logged at warn level.
func Logf(entry *logrus.Entry) func(format string, args ...any) {
	return func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		if rest, ok := strings.CutPrefix(msg, "warning: "); ok {
			entry.Warn(rest)
			return
		}
		entry.Info(msg)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
