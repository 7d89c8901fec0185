package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/novanataka/registration/internal/apperror"
)

// ErrorResponse is the error shape every API endpoint returns.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable kind, e.g. "not_found"
	Message string `json:"message"` // human-readable description
}

// MessageResponse is the success shape for write operations.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError translates a service error into an HTTP response. The service
// layer deals in apperror sentinels and never sees status codes.
//
// A busy store (the workbook open in another program) stays a 500, but its
// message passes through verbatim so the admin knows which file to close.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		kind := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			kind = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			kind = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			kind = "not_found"
		case errors.Is(err, apperror.ErrBusy):
			kind = "store_busy"
		}

		writeJSON(w, status, ErrorResponse{Error: kind, Message: appErr.Message})
		return
	}

	// Unknown errors stay opaque; the detail goes to the log, not the client.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
