// Package shared holds small helpers used by every HTTP handler package.
package shared

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dErrors "taskboard/pkg/domain-errors"
)

// PathID parses a positive integer URL parameter.
func PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid "+name)
	}
	return id, nil
}

// QueryInt parses an optional non-negative integer query parameter, returning
// (0, false, nil) when absent.
func QueryInt(r *http.Request, name string) (int64, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, false, dErrors.New(dErrors.CodeBadRequest, "invalid "+name)
	}
	return n, true, nil
}
