package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/pokestock/internal/auth"
	"github.com/erazemk/pokestock/internal/model"
	"github.com/erazemk/pokestock/internal/store"
)

type profilePage struct {
	PageData
	HasPassword bool
	Themes      []string
}

func (s *Server) renderProfile(w http.ResponseWriter, r *http.Request, status int, page PageData) {
	app := GetApp(r.Context())
	page.Title = "Profile"
	page.App = app

	hasPassword := false
	user, err := store.GetUser(r.Context(), s.DB, app.Session.UserID)
	if err != nil {
		slog.Error("failed to get user", "error", err)
	} else if user != nil {
		hasPassword = user.HasPassword()
	}

	s.Templates.RenderStatus(w, status, "profile.html", &profilePage{
		PageData:    page,
		HasPassword: hasPassword,
		Themes:      []string{model.ThemeDark, model.ThemeLight},
	})
}

// ProfilePage handles GET /profile.
func (s *Server) ProfilePage(w http.ResponseWriter, r *http.Request) {
	s.renderProfile(w, r, http.StatusOK, PageData{})
}

// ThemeSubmit handles POST /profile/theme.
func (s *Server) ThemeSubmit(w http.ResponseWriter, r *http.Request) {
	theme := r.FormValue("theme")
	if !model.ValidTheme(theme) {
		s.renderProfile(w, r, http.StatusBadRequest, PageData{Error: "Unknown theme."})
		return
	}

	app := GetApp(r.Context())
	if err := store.SavePreferences(r.Context(), s.DB, app.Session.UserID, model.Preferences{Theme: theme}); err != nil {
		slog.Error("failed to save preferences", "error", err)
		s.renderProfile(w, r, http.StatusInternalServerError, PageData{Error: "Could not save your theme."})
		return
	}

	slog.Info("preferences updated", "user", app.Session.UserID, "theme", theme)
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// PasswordSubmit handles POST /profile/password.
func (s *Server) PasswordSubmit(w http.ResponseWriter, r *http.Request) {
	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	confirm := r.FormValue("confirm_password")

	if next != confirm {
		s.renderProfile(w, r, http.StatusBadRequest, PageData{Error: "The new passwords do not match."})
		return
	}
	if err := model.ValidatePassword(next); err != nil {
		s.renderProfile(w, r, http.StatusBadRequest, PageData{Error: err.Error()})
		return
	}

	err := s.Sessions.ChangePassword(r.Context(), GetApp(r.Context()).Session.UserID, current, next)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.renderProfile(w, r, http.StatusUnauthorized, PageData{Error: "Current password is incorrect."})
		return
	}
	if err != nil {
		slog.Error("failed to change password", "error", err)
		s.renderProfile(w, r, http.StatusInternalServerError, PageData{Error: "Could not change your password."})
		return
	}

	s.renderProfile(w, r, http.StatusOK, PageData{Success: "Password changed."})
}
