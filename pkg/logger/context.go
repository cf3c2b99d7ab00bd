package logger

import (
	"context"
	"log/slog"
)

type ctxKey string

const loggerKey ctxKey = "logger"

// With returns a new context that carries a logger enriched with fields.
func With(ctx context.Context, fields ...any) context.Context {
	l := From(ctx).With(fields...)
	return context.WithValue(ctx, loggerKey, l)
}

// Scoped returns the logger stored in ctx, if any. Without one it returns the
// process logger and false.
func Scoped(ctx context.Context) (*slog.Logger, bool) {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
			return l, true
		}
	}
	return LoggerWrapper(), false
}

// From returns the logger stored in context, or the process logger if missing.
func From(ctx context.Context) *slog.Logger {
	l, _ := Scoped(ctx)
	return l
}
