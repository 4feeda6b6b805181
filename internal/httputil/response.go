package httputil

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Error codes returned in the "code" field of an error body.
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeUpstream     = "UPSTREAM_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every error reply:
// {"error": {"code": "NOT_FOUND", "message": "user not found"}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteJSON writes data as a JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			zap.L().Warn("failed to encode response", zap.Error(err))
		}
	}
}

func WriteError(w http.ResponseWriter, status int, code string, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// WriteValidationError writes a 400 naming the offending field.
func WriteValidationError(w http.ResponseWriter, field, message string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{Code: ErrCodeBadRequest, Message: message, Field: field},
	})
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, ErrCodeConflict, message)
}

// WriteBadGateway reports a failed call to the music catalog.
func WriteBadGateway(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, ErrCodeUpstream, message)
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// DecodeJSON decodes the request body into v, capped at maxBytes.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
