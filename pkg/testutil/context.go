package testutil

import (
	"net/http"
	"time"

	"taskboard/internal/platform/middleware"
)

// WithUserID stamps an authenticated user onto the request context, the way
// the auth middleware does for real requests.
func WithUserID(req *http.Request, userID int64) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

// WithRequestTime pins the request clock so timestamps are deterministic.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(middleware.WithTime(req.Context(), t))
}
