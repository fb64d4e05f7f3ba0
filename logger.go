package messagevault

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with messagevault-specific context.
// This provides structured logging with consistent field names across
// the writer, reader, and subscription loop.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses a default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithLogPosition adds a logical-position field to the logger.
func (l *Logger) WithLogPosition(pos uint64) *Logger {
	return &Logger{Logger: l.Logger.With("position", pos)}
}

// LogAppend logs an append operation.
func (l *Logger) LogAppend(ctx context.Context, count int, newLen uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "append failed", "count", count, "error", err)
		return
	}
	l.DebugContext(ctx, "append completed", "count", count, "new_length", newLen)
}

// LogFlush logs a flush operation.
func (l *Logger) LogFlush(ctx context.Context, pagesWritten int, tailBase uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "flush failed", "pages_written", pagesWritten, "tail_base", tailBase, "error", err)
		return
	}
	l.DebugContext(ctx, "flush completed", "pages_written", pagesWritten, "tail_base", tailBase)
}

// LogRead logs a bounded read operation.
func (l *Logger) LogRead(ctx context.Context, from, next uint64, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "read failed", "from", from, "error", err)
		return
	}
	l.DebugContext(ctx, "read completed", "from", from, "next_position", next, "count", count)
}

// LogSubscriptionBackoff logs a subscription loop retry-after-error.
func (l *Logger) LogSubscriptionBackoff(ctx context.Context, position uint64, attempt int, err error) {
	l.WarnContext(ctx, "subscription backing off after error",
		"position", position,
		"attempt", attempt,
		"error", err,
	)
}

// LogSubscriptionStop logs the clean termination of a subscription loop.
func (l *Logger) LogSubscriptionStop(ctx context.Context, position uint64) {
	l.InfoContext(ctx, "subscription stopped", "position", position)
}
