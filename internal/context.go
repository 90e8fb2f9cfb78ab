package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextScopeKey ctxKey = "sessionScope"

// ScopeFromContext returns the browser session scope attached by the session middleware.
func ScopeFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if scope, ok := ctx.Value(ContextScopeKey).(string); ok {
		return scope
	}
	return ""
}

func ContextWithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, ContextScopeKey, scope)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
