package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sdwr/cowprofit/internal/drops"
	"github.com/sdwr/cowprofit/internal/enhance"
	"github.com/sdwr/cowprofit/internal/game"
	"github.com/sdwr/cowprofit/internal/service"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse lists the fields that failed validation
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// User-facing error messages
const (
	ErrMsgGenericServerError    = "Something went wrong"
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request. Please check your inputs."
	ErrMsgNotFound              = "Item or profile not found"
	ErrMsgUnreachableTarget     = "Target unreachable with these success rates"
)

var bufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 1024))
	},
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload any) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufferPool.Put(buf)
	}()

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError maps a service error to a status and writes it.
func respondServiceError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:  ErrMsgInvalidRequestSummary,
			Fields: service.FormatValidationError(err),
		})
		return
	}
	status, msg := mapServiceError(err)
	respondError(w, status, msg)
}

// mapServiceError maps domain errors to HTTP status codes and messages.
func mapServiceError(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, ErrMsgGenericServerError
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound, ErrMsgNotFound
	case errors.Is(err, enhance.ErrDegenerateSystem):
		return http.StatusUnprocessableEntity, ErrMsgUnreachableTarget
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, enhance.ErrInvalidConfig),
		errors.Is(err, drops.ErrInvalidSession),
		errors.Is(err, game.ErrValidation):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, ErrMsgGenericServerError
	}
}
