// Package handler contains the HTTP handlers: the JSON account and read
// APIs plus the browser-facing GitHub connect flow.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperlog/hyperlog/internal/apperror"
)

// ErrorResponse is the standard error format returned by the JSON
// endpoints. Errors carries the full per-field message list when a
// validation failure reports more than one problem.
type ErrorResponse struct {
	Error   string   `json:"error"`            // machine-readable kind, e.g. "not_found"
	Message string   `json:"message"`          // human-readable description
	Errors  []string `json:"errors,omitempty"` // individual validation messages
	Field   string   `json:"field,omitempty"`  // offending field, when known
}

// writeJSON sends a JSON response with the given status code. Headers and
// status must go out before the body; encode failures after that point can
// only be logged.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status code and sends the
// standard error shape. The service layer never sees status codes; the
// mapping from sentinel to status lives entirely here.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrBadRequest):
			status = http.StatusBadRequest
			errorType = "bad_request"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		resp := ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		}
		if len(appErr.Messages) > 1 {
			resp.Errors = appErr.Messages
		}
		writeJSON(w, status, resp)
		return
	}

	// Unknown error. The raw message may contain queries or paths, so the
	// client gets a generic body and the detail goes to the log.
	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an unexpected error occurred",
	})
}

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.BadRequest("invalid JSON body")
	}
	return nil
}
