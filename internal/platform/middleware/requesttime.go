package middleware

import (
	"context"
	"net/http"
	"time"
)

type contextKeyRequestTime struct{}

var ContextKeyRequestTime = contextKeyRequestTime{}

// RequestTime captures the current time at the start of the request so every
// timestamp written during one request (entity columns, audit rows) agrees.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestTime, time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Now retrieves the request-scoped time from context, falling back to
// time.Now for non-HTTP contexts such as tests and CLI commands.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now().UTC()
}

// WithTime injects a specific time into a context for tests.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
