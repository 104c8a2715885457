package common

import (
	"context"
	"log/slog"
	"time"
)

type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID tags ctx with the id of the HTTP request or queued job it serves.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the id set by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// LogWith adds a req_id attribute to logger when ctx carries one.
func LogWith(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if id := RequestIDFromContext(ctx); id != "" {
		return logger.With("req_id", id)
	}
	return logger
}

// WithTimeout derives a context bounded by timeout; zero or negative leaves the parent untouched.
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
