// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/cityfix/internal/app/system/reqmeta"
)

// Codes that do not come from apperr.
const (
	CodeValidation   = "validation_failed"
	CodeUnauthorized = "unauthorized"
)

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one error.
type ErrorDetail struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RenderUnauthorized answers 401 when no actor is present.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusUnauthorized, ErrorDetail{Code: CodeUnauthorized, Message: "sign in required"})
}

// RenderForbidden answers 403 with msg.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "you do not have access to this resource"
	}
	writeError(w, r, http.StatusForbidden, ErrorDetail{Code: "permission_denied", Message: msg})
}

// RenderNotFound answers 404 with msg.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg string) {
	writeError(w, r, http.StatusNotFound, ErrorDetail{Code: "not_found", Message: msg})
}

// RenderTooManyRequests answers 429 when a caller exceeds its rate limit.
func RenderTooManyRequests(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusTooManyRequests, ErrorDetail{Code: "rate_limited", Message: "too many requests, try again later"})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, d ErrorDetail) {
	d.RequestID = reqmeta.FromContext(r.Context()).RequestID
	WriteJSON(w, status, ErrorResponse{Error: d})
}
