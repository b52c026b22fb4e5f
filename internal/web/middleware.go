package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/pokestock/internal/auth"
	"github.com/erazemk/pokestock/internal/model"
	"github.com/erazemk/pokestock/internal/store"
)

const cookieName = "token"

// CookieAuthMiddleware validates the session cookie, checks revocation and
// builds the AppContext from the user's saved preferences.
func CookieAuthMiddleware(sessions *auth.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			claims, err := sessions.Check(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, model.ErrSessionExpired) {
					slog.Error("failed to check token revocation", "error", err)
				}
				clearAuthCookie(w)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			prefs, err := store.GetPreferences(r.Context(), sessions.DB, claims.UserID)
			if err != nil {
				slog.Error("failed to load preferences", "user", claims.UserID, "error", err)
				prefs = model.DefaultPreferences()
			}

			app := AppContext{
				Session: auth.SessionFromClaims(claims),
				Theme:   prefs.Theme,
				Claims:  claims,
			}
			next.ServeHTTP(w, r.WithContext(withApp(r.Context(), app)))
		})
	}
}

func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(auth.TokenExpiry.Seconds()),
	})
}

// clearAuthCookie clears the authentication cookie with consistent attributes.
func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
