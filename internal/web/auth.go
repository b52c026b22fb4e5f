package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/pokestock/internal/auth"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &PageData{Title: "Sign in", App: anonymous()})
}

// LoginSubmit handles POST /login. The "method" field picks password
// sign-in or an emailed link.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	page := &PageData{Title: "Sign in", App: anonymous()}

	if email == "" {
		page.Error = "Enter your email address."
		s.Templates.RenderStatus(w, http.StatusBadRequest, "login.html", page)
		return
	}

	if r.FormValue("method") == "link" {
		if err := s.Sessions.SignInWithOTP(r.Context(), email); err != nil {
			slog.Warn("sign-in link not sent", "error", err)
			page.Error = "Could not send a sign-in link to that address."
			s.Templates.RenderStatus(w, http.StatusBadRequest, "login.html", page)
			return
		}
		page.Success = "Check your email for a sign-in link."
		s.Templates.Render(w, "login.html", page)
		return
	}

	password := r.FormValue("password")
	if password == "" {
		page.Error = "Enter your email and password."
		s.Templates.RenderStatus(w, http.StatusBadRequest, "login.html", page)
		return
	}

	token, _, err := s.Sessions.SignInWithPassword(r.Context(), email, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		page.Error = "Wrong email or password."
		s.Templates.RenderStatus(w, http.StatusUnauthorized, "login.html", page)
		return
	}
	if err != nil {
		slog.Error("login failed", "error", err)
		page.Error = "Sign-in failed."
		s.Templates.RenderStatus(w, http.StatusInternalServerError, "login.html", page)
		return
	}

	setAuthCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// MagicLink handles GET /magic?token=.
func (s *Server) MagicLink(w http.ResponseWriter, r *http.Request) {
	page := &PageData{Title: "Sign in", App: anonymous()}

	token, _, err := s.Sessions.VerifyOTP(r.Context(), r.URL.Query().Get("token"))
	if errors.Is(err, auth.ErrInvalidLink) {
		page.Error = "This sign-in link is invalid or has expired."
		s.Templates.RenderStatus(w, http.StatusUnauthorized, "login.html", page)
		return
	}
	if err != nil {
		slog.Error("link verification failed", "error", err)
		page.Error = "Sign-in failed."
		s.Templates.RenderStatus(w, http.StatusInternalServerError, "login.html", page)
		return
	}

	setAuthCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		if claims, err := s.Sessions.Check(r.Context(), cookie.Value); err == nil {
			if err := s.Sessions.SignOut(r.Context(), claims); err != nil {
				slog.Error("failed to revoke token", "error", err)
			}
		}
	}
	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
