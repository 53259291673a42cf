// Package logging configures the process-wide structured logger used by
// every ragcore component. It wraps log/slog with the LOG_LEVEL / LOG_FORMAT
// conventions the rest of the stack expects.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds a slog.Logger from a level string ("debug", "info", "warn",
// "error") and a format string ("json" or "text"). Unknown values fall back
// to info/json rather than erroring, since logging setup must never be what
// crashes a CLI invocation.
func New(level, format string, out io.Writer) *slog.Logger {
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(handler)
}

// NewDefault builds a logger from the standard environment variables,
// LOG_LEVEL and LOG_FORMAT, for entry points that haven't loaded config yet.
func NewDefault() *slog.Logger {
	return New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stderr)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
