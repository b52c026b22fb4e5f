package web

import (
	"net/http"

	"github.com/erazemk/pokestock/internal/auth"
	"github.com/erazemk/pokestock/internal/remote"
	webembed "github.com/erazemk/pokestock/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(sessions *auth.Provider, cards *remote.Store) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        sessions.DB,
		Templates: templates,
		Sessions:  sessions,
		Cards:     cards,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(sessions)

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /magic", s.MagicLink)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /{$}", cookieAuth(http.HandlerFunc(s.Dashboard)))
	mux.Handle("GET /events", cookieAuth(http.HandlerFunc(s.Events)))

	mux.Handle("GET /inventory", cookieAuth(http.HandlerFunc(s.InventoryPage)))
	mux.Handle("POST /inventory", cookieAuth(http.HandlerFunc(s.CardCreateSubmit)))
	mux.Handle("GET /inventory/{id}", cookieAuth(http.HandlerFunc(s.CardPage)))
	mux.Handle("POST /inventory/{id}", cookieAuth(http.HandlerFunc(s.CardUpdateSubmit)))
	mux.Handle("POST /inventory/{id}/delete", cookieAuth(http.HandlerFunc(s.CardDeleteSubmit)))
	mux.Handle("POST /inventory/{id}/image", cookieAuth(http.HandlerFunc(s.CardImageSubmit)))
	mux.Handle("GET /inventory/{id}/image", cookieAuth(http.HandlerFunc(s.CardImageGet)))

	mux.Handle("GET /profile", cookieAuth(http.HandlerFunc(s.ProfilePage)))
	mux.Handle("POST /profile/theme", cookieAuth(http.HandlerFunc(s.ThemeSubmit)))
	mux.Handle("POST /profile/password", cookieAuth(http.HandlerFunc(s.PasswordSubmit)))

	return mux, nil
}
