package relevec

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with relevec-specific context.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithSchema adds a schema field to the logger.
func (l *Logger) WithSchema(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("schema", name),
	}
}

// LogDefine logs the creation of a schema through GetOrCreate.
func (l *Logger) LogDefine(ctx context.Context, name string, kind Kind, err error) {
	if err != nil {
		l.ErrorContext(ctx, "define schema failed",
			"schema", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "schema defined",
			"schema", name,
			"kind", kind.String(),
		)
	}
}

// LogImport logs a strict registry import.
func (l *Logger) LogImport(ctx context.Context, count, imported int, err error) {
	if err != nil {
		l.WarnContext(ctx, "registry import stopped",
			"total", count,
			"imported", imported,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "registry import completed",
			"count", count,
		)
	}
}

// LogExport logs a registry export.
func (l *Logger) LogExport(ctx context.Context, count int) {
	l.DebugContext(ctx, "registry exported",
		"count", count,
	)
}

// LogSnapshot logs an archive save.
func (l *Logger) LogSnapshot(ctx context.Context, id string, vectors int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"snapshot", id,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"snapshot", id,
			"vectors", vectors,
		)
	}
}

// LogRestore logs an archive load.
func (l *Logger) LogRestore(ctx context.Context, id string, vectors int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"snapshot", id,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot restored",
			"snapshot", id,
			"vectors", vectors,
		)
	}
}
