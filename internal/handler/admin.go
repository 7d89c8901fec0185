package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/novanataka/registration/internal/auth"
	"github.com/novanataka/registration/internal/service"
)

// AdminHandler serves the password-gated admin operations: login, delete,
// and the xlsx download.
type AdminHandler struct {
	service      *service.RegistrationService
	passwords    *auth.PasswordService
	tokens       *auth.TokenService
	passwordHash string // bcrypt hash of the shared admin password
	logger       *slog.Logger
}

// NewAdminHandler creates an AdminHandler. passwordHash is the bcrypt hash
// of the shared admin password; the plaintext never reaches this layer.
func NewAdminHandler(svc *service.RegistrationService, passwords *auth.PasswordService, tokens *auth.TokenService, passwordHash string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		service:      svc,
		passwords:    passwords,
		tokens:       tokens,
		passwordHash: passwordHash,
		logger:       logger,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HandleLogin exchanges the shared admin password for a short-lived token.
//
// HTTP: POST /api/admin/login
// Body: {"password": "..."}
//
// The token also goes out as a cookie so the dashboard's plain download
// link works without scripting the Authorization header.
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be valid JSON",
		})
		return
	}

	if err := h.passwords.Verify(h.passwordHash, req.Password); err != nil {
		h.logger.Warn("admin login rejected", slog.String("remote", r.RemoteAddr))
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "invalid admin password",
		})
		return
	}

	token, err := h.tokens.GenerateAdmin()
	if err != nil {
		h.logger.Error("failed to generate admin token", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	expires := time.Now().Add(auth.TokenTTL)
	http.SetCookie(w, &http.Cookie{
		Name:     "admin_token",
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	h.logger.Info("admin login", slog.String("remote", r.RemoteAddr))
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires})
}

// HandleDelete removes one registration by lead email.
//
// HTTP: DELETE /api/admin/registration/{email}
func (h *AdminHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	if err := h.service.Delete(r.Context(), email); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Registration deleted"})
}

// HandleDownload streams the registry as an xlsx attachment.
//
// HTTP: GET /api/admin/download
func (h *AdminHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("registrations-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to stream export", slog.String("error", err.Error()))
	}
}
