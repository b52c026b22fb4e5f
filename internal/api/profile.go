package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/pokestock/internal/model"
	"github.com/erazemk/pokestock/internal/store"
)

// ProfileHandler handles the signed-in user's preferences.
type ProfileHandler struct {
	DB *sql.DB
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	prefs, err := store.GetPreferences(r.Context(), h.DB, GetClaims(r.Context()).UserID)
	if err != nil {
		slog.Error("failed to get preferences", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	jsonResponse(w, http.StatusOK, prefs)
}

// Update handles PUT /api/profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var prefs model.Preferences
	if err := decodeJSON(r, &prefs); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidTheme(prefs.Theme) {
		jsonError(w, http.StatusBadRequest, "theme must be dark or light")
		return
	}

	userID := GetClaims(r.Context()).UserID
	if err := store.SavePreferences(r.Context(), h.DB, userID, prefs); err != nil {
		slog.Error("failed to save preferences", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	slog.Info("preferences updated", "user", userID, "theme", prefs.Theme)
	jsonResponse(w, http.StatusOK, prefs)
}
