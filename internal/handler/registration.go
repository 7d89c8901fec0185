// Package handler contains the HTTP layer: JSON decoding, path parameters,
// and the mapping from service errors to status codes.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/novanataka/registration/internal/service"
)

// RegistrationHandler serves the public registration endpoints and the
// admin listing.
type RegistrationHandler struct {
	service *service.RegistrationService
	logger  *slog.Logger
}

// NewRegistrationHandler creates a RegistrationHandler.
func NewRegistrationHandler(svc *service.RegistrationService, logger *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{service: svc, logger: logger}
}

// HandleRegister creates or updates a registration.
//
// HTTP: POST /api/register
// Body: the public form as flat JSON (teamName, m1_name, m1_email, ...).
// The same endpoint serves first-time registration and edits; the lead
// email decides which one it is.
func (h *RegistrationHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid registration JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be valid JSON",
		})
		return
	}

	msg, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

// HandleList returns every registration as a dashboard row, oldest first.
//
// HTTP: GET /api/registrations (admin token required)
func (h *RegistrationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

// HandleGetByEmail returns one registration in the shape of the public
// form, for prefilling an edit.
//
// HTTP: GET /api/registration/{email}
func (h *RegistrationHandler) HandleGetByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	form, err := h.service.GetByEmail(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, form)
}

// HandlePing is a liveness check.
//
// HTTP: GET /api/ping
func (h *RegistrationHandler) HandlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
