package events

import (
	"context"
	"os"
)

type contextKey int

const (
	loggerKey contextKey = iota
	tabIDKey
	opIDKey
)

// FromContext extracts the logger from a context, falling back to the
// process default.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return defaultLogger
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithTabID tags the context and its logger with a tab identifier.
func WithTabID(ctx context.Context, id string) context.Context {
	logger := FromContext(ctx).WithField("tab_id", id)
	ctx = context.WithValue(ctx, tabIDKey, id)
	return WithLogger(ctx, logger)
}

// GetTabID retrieves the tab identifier from a context.
func GetTabID(ctx context.Context) string {
	if id, ok := ctx.Value(tabIDKey).(string); ok {
		return id
	}
	return ""
}

// WithOpID tags the context and its logger with a filesystem operation ID.
func WithOpID(ctx context.Context, id string) context.Context {
	logger := FromContext(ctx).WithField("op_id", id)
	ctx = context.WithValue(ctx, opIDKey, id)
	return WithLogger(ctx, logger)
}

// GetOpID retrieves the operation ID from a context.
func GetOpID(ctx context.Context) string {
	if id, ok := ctx.Value(opIDKey).(string); ok {
		return id
	}
	return ""
}

var defaultLogger = NewTestLogger(InfoLevel, "text", os.Stderr)

// SetDefaultLogger replaces the process-wide fallback logger.
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}
