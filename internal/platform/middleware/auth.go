package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator defines the interface for validating bearer tokens. The
// implementation is expected to reject revoked tokens as well as expired or
// malformed ones.
type JWTValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	UserID  int64
	TokenID string
}

// Context keys for authenticated request information.
type contextKeyUserID struct{}
type contextKeyTokenID struct{}

var (
	ContextKeyUserID  = contextKeyUserID{}
	ContextKeyTokenID = contextKeyTokenID{}
)

// GetUserID retrieves the authenticated user ID from the context. Returns 0
// when no user is authenticated.
func GetUserID(ctx context.Context) int64 {
	userID, ok := ctx.Value(ContextKeyUserID).(int64)
	if !ok {
		return 0
	}
	return userID
}

// GetTokenID retrieves the JWT ID of the presented token from the context.
func GetTokenID(ctx context.Context) string {
	tokenID, ok := ctx.Value(ContextKeyTokenID).(string)
	if !ok {
		return ""
	}
	return tokenID
}

// WithUserID injects an authenticated user ID into a context. Useful for
// handler tests that don't run the full middleware chain.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// RequireAuth validates the Authorization header and stores the caller's
// identity in the request context. Requests without a valid bearer token get
// 401 and never reach the handler.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, ContextKeyUserID, claims.UserID)
			ctx = context.WithValue(ctx, ContextKeyTokenID, claims.TokenID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"` + description + `"}`))
}
