package handler

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform response wrapper for every HTTP endpoint except
// streaming payloads (playlists, segments, thumbnails), which write raw
// bytes with their own content type.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Data       any         `json:"data,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries a stable error code, a human-readable message, and
// optional structured details (e.g. field-level validation errors).
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes data as a successful envelope with the given HTTP status.
func JSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, Envelope{StatusCode: status, Data: data})
}

// Error writes a failed envelope with the given HTTP status and error code.
func Error(w http.ResponseWriter, status int, code, message string) {
	writeEnvelope(w, status, Envelope{
		StatusCode: status,
		Error:      &ErrorBody{Code: code, Message: message},
	})
}

// ErrorWithDetails is Error plus a details payload, used for validation
// failures that name which field was rejected.
func ErrorWithDetails(w http.ResponseWriter, status int, code, message string, details any) {
	writeEnvelope(w, status, Envelope{
		StatusCode: status,
		Error:      &ErrorBody{Code: code, Message: message, Details: details},
	})
}

func writeEnvelope(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
