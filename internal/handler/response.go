package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError, so success bodies
// are always JSON and every error body has the same shape:
//
//	{"error": "not_found", "message": "meal not found with id abc123"}
//
// The foodclient package decodes this shape and maps "error" back to the
// apperror sentinels, so the two sides must agree on the type strings below.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/food-diary/internal/apperror"
)

// Error type strings carried in ErrorResponse.Error.
const (
	ErrTypeValidation  = "validation_error"
	ErrTypeNotFound    = "not_found"
	ErrTypeConflict    = "conflict"
	ErrTypeUnavailable = "unavailable"
	ErrTypeInternal    = "internal_error"
)

// maxBodyBytes caps request bodies. A meal with a few hundred items fits
// comfortably.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable type, e.g. "not_found"
	Message string `json:"message"` // human-readable description
}

// writeJSON sends data as JSON with the given status. Headers must be set
// before WriteHeader; anything set afterwards is ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
//	ErrValidation  → 400 validation_error
//	ErrNotFound    → 404 not_found
//	ErrConflict    → 409 conflict
//	ErrUnavailable → 503 unavailable
//	anything else  → 500 internal_error (message hidden)
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := ErrTypeInternal

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = ErrTypeValidation
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = ErrTypeNotFound
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = ErrTypeConflict
		case errors.Is(err, apperror.ErrUnavailable):
			status = http.StatusServiceUnavailable
			errorType = ErrTypeUnavailable
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	// Raw errors may carry SQL or file paths. Log them, never return them.
	logger.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   ErrTypeInternal,
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are rejected so typos in field names surface as 400s.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperror.ValidationFailed("body", "request body too large")
		}
		return apperror.ValidationFailed("body", "invalid JSON body: "+err.Error())
	}
	if _, err := dec.Token(); err != io.EOF {
		return apperror.ValidationFailed("body", "request body must contain a single JSON object")
	}
	return nil
}
