// Package api serves the observing queries as JSON over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/litescript/ls-nightsky/internal/conditions"
	"github.com/litescript/ls-nightsky/internal/logging"
)

// Error codes returned in the error body.
const (
	ErrCodeValidation  = "validation_error"
	ErrCodeGeometry    = "geometry_unavailable"
	ErrCodeUnavailable = "unavailable"
	ErrCodeInternal    = "internal_error"
)

// ErrorResponse is the body of every failed request:
// {"error": {"code": "...", "message": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errValidation marks bad query parameters.
var errValidation = errors.New("invalid parameter")

// classify maps a query error to a status and code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errValidation),
		errors.Is(err, conditions.ErrInvalidLocation),
		errors.Is(err, conditions.ErrInvalidWindow):
		return http.StatusBadRequest, ErrCodeValidation
	case errors.Is(err, conditions.ErrGeometryUnavailable):
		return http.StatusBadGateway, ErrCodeGeometry
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ErrCodeUnavailable
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

func writeError(w http.ResponseWriter, log *logging.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed: %v", err)
	}
	writeJSON(w, log, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: err.Error()}})
}

func writeJSON(w http.ResponseWriter, log *logging.Logger, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error("failed to marshal response: %v", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Debug("failed to write response: %v", err)
	}
}
