package exdcache

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/exdcache/exd"
)

// Logger wraps slog.Logger with exdcache-specific context.
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
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithSheet adds a sheet field to the logger.
func (l *Logger) WithSheet(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("sheet", name),
	}
}

// LogListing logs the completion of the background sheet listing.
func (l *Logger) LogListing(ctx context.Context, count int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "listing failed",
			"elapsed", elapsed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "listing loaded",
			"sheets", count,
			"elapsed", elapsed,
		)
	}
}

// LogHeaderLoad logs a header fetch.
func (l *Logger) LogHeaderLoad(ctx context.Context, name string, elapsed time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "header load failed",
			"sheet", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "header loaded",
			"sheet", name,
			"elapsed", elapsed,
		)
	}
}

// LogSheetLoad logs a variant load.
func (l *Logger) LogSheetLoad(ctx context.Context, name string, lang exd.Language, rows int, elapsed time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "sheet load failed",
			"sheet", name,
			"language", lang,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "sheet loaded",
			"sheet", name,
			"language", lang,
			"rows", rows,
			"elapsed", elapsed,
		)
	}
}

// LogEvict logs the removal of a cached header and its variants.
func (l *Logger) LogEvict(ctx context.Context, name string, reason string) {
	l.DebugContext(ctx, "sheet evicted",
		"sheet", name,
		"reason", reason,
	)
}
