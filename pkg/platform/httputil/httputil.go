// Package httputil centralizes JSON response shaping so every handler emits
// the same envelopes.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "taskboard/pkg/domain-errors"
)

// ErrorResponse is the JSON envelope for all error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into an HTTP response. Errors without
// a code are treated as internal and their detail is not leaked to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	msg := ""
	if status < http.StatusInternalServerError {
		msg = dErrors.MessageFor(err, "")
	}
	WriteJSON(w, status, ErrorResponse{Error: string(code), Message: msg})
}

// WriteMessage writes a simple {"message": ...} response, used by delete-style
// endpoints that have no entity to return.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"message": message})
}
