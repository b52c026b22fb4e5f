package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/pokestock/internal/auth"
	"github.com/erazemk/pokestock/internal/model"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	Sessions *auth.Provider
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type linkRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}

	token, _, err := h.Sessions.SignInWithPassword(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		slog.Error("login failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	jsonResponse(w, http.StatusOK, loginResponse{Token: token})
}

// RequestLink handles POST /api/auth/otp.
func (h *AuthHandler) RequestLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Sessions.SignInWithOTP(r.Context(), req.Email); err != nil {
		slog.Warn("sign-in link not sent", "error", err)
		jsonError(w, http.StatusBadRequest, "could not send sign-in link")
		return
	}

	jsonResponse(w, http.StatusAccepted, map[string]string{"message": "sign-in link sent"})
}

// VerifyLink handles POST /api/auth/otp/verify.
func (h *AuthHandler) VerifyLink(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil || req.Token == "" {
		jsonError(w, http.StatusBadRequest, "token required")
		return
	}

	token, _, err := h.Sessions.VerifyOTP(r.Context(), req.Token)
	if errors.Is(err, auth.ErrInvalidLink) {
		jsonError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		slog.Error("link verification failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	jsonResponse(w, http.StatusOK, loginResponse{Token: token})
}

// Session handles GET /api/auth/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, auth.SessionFromClaims(GetClaims(r.Context())))
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.SignOut(r.Context(), GetClaims(r.Context())); err != nil {
		slog.Error("failed to revoke token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to log out")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := model.ValidatePassword(req.NewPassword); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.Sessions.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
	case err != nil:
		slog.Error("failed to update password", "user", claims.UserID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update password")
	default:
		jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
	}
}
