package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/manuwestern/dionwebsite/internal/platform/requestctx"
)

// Error is the JSON error envelope returned to htmx and programmatic callers.
type Error struct {
	Code    string
	Message string
	Status  int
}

// NewError constructs an Error; a zero status becomes 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    sanitize(code, 80),
		Message: sanitize(message, 512),
		Status:  status,
	}
}

// Error implements the error interface so the envelope can travel as an error value.
func (e Error) Error() string {
	return e.Code + ": " + e.Message
}

// WriteError writes the structured error as JSON.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	payload := map[string]any{
		"error":   err.Code,
		"message": err.Message,
		"status":  status,
	}
	if id := sanitize(middleware.GetReqID(ctx), 80); id != "" {
		payload["request_id"] = id
	}
	if traceID := sanitize(requestctx.TraceID(ctx), 64); traceID != "" {
		payload["trace_id"] = traceID
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func isHTMX(r *http.Request) bool {
	return r != nil && r.Header.Get("HX-Request") == "true"
}

// Fail writes err as JSON for htmx requests and as plain text otherwise.
func Fail(w http.ResponseWriter, r *http.Request, err Error) {
	if isHTMX(r) {
		WriteError(r.Context(), w, err)
		return
	}
	http.Error(w, err.Message, err.Status)
}

func sanitize(value string, limit int) string {
	if limit <= 0 {
		limit = 256
	}
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
