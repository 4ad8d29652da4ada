package sog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with export-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithJobID adds the export job ID.
func (l *Logger) WithJobID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("job_id", id),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogStage logs a finished export stage.
func (l *Logger) LogStage(ctx context.Context, stage Stage, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "stage failed",
			"stage", stage.String(),
			"duration", duration,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "stage completed",
			"stage", stage.String(),
			"duration", duration,
		)
	}
}

// LogExport logs the outcome of an export.
func (l *Logger) LogExport(ctx context.Context, res *Result, err error) {
	if err != nil {
		l.ErrorContext(ctx, "export failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "export completed",
		"count", res.Count,
		"width", res.Width,
		"height", res.Height,
		"sh_bands", res.SHBands,
		"bytes", res.Bytes,
		"duration", res.Duration,
	)
}
