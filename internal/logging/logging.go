// Package logging provides structured JSON logging for the condition engine.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with additional context fields.
type Logger struct {
	*slog.Logger
}

type contextKey string

const (
	arrayKey    contextKey = "array"
	fragmentKey contextKey = "fragment"
)

// New creates a new Logger with JSON output.
func New() *Logger {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter creates a new Logger with JSON output to the provided writer.
func NewWithWriter(w io.Writer) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithContext returns a logger with context values attached.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	logger := l.Logger

	if array, ok := ctx.Value(arrayKey).(string); ok && array != "" {
		logger = logger.With(slog.String("array", array))
	}
	if fragment, ok := ctx.Value(fragmentKey).(int); ok {
		logger = logger.With(slog.Int("fragment", fragment))
	}

	return &Logger{Logger: logger}
}

// With returns a new logger with additional attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// ContextWithArray adds an array name to the context.
func ContextWithArray(ctx context.Context, array string) context.Context {
	return context.WithValue(ctx, arrayKey, array)
}

// ContextWithFragment adds a fragment ordinal to the context.
func ContextWithFragment(ctx context.Context, fragment int) context.Context {
	return context.WithValue(ctx, fragmentKey, fragment)
}

// ArrayFromContext extracts the array name from the context.
func ArrayFromContext(ctx context.Context) string {
	if a, ok := ctx.Value(arrayKey).(string); ok {
		return a
	}
	return ""
}
