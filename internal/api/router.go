package api

import (
	"net/http"

	"github.com/erazemk/pokestock/internal/auth"
	"github.com/erazemk/pokestock/internal/remote"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(sessions *auth.Provider, cards *remote.Store) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Sessions: sessions}
	cardsHandler := &CardsHandler{Cards: cards}
	dashboardHandler := &DashboardHandler{Cards: cards}
	profileHandler := &ProfileHandler{DB: sessions.DB}

	authMW := AuthMiddleware(sessions)

	// Public: sign-in.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/otp", authHandler.RequestLink)
	mux.HandleFunc("POST /api/auth/otp/verify", authHandler.VerifyLink)

	// Authenticated routes.
	mux.Handle("GET /api/auth/session", authMW(http.HandlerFunc(authHandler.Session)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	mux.Handle("GET /api/cards", authMW(http.HandlerFunc(cardsHandler.List)))
	mux.Handle("POST /api/cards", authMW(http.HandlerFunc(cardsHandler.Create)))
	mux.Handle("GET /api/cards/events", authMW(http.HandlerFunc(cardsHandler.Events)))
	mux.Handle("GET /api/cards/{id}", authMW(http.HandlerFunc(cardsHandler.Get)))
	mux.Handle("PUT /api/cards/{id}", authMW(http.HandlerFunc(cardsHandler.Update)))
	mux.Handle("DELETE /api/cards/{id}", authMW(http.HandlerFunc(cardsHandler.Delete)))
	mux.Handle("PUT /api/cards/{id}/image", authMW(http.HandlerFunc(cardsHandler.UploadImage)))
	mux.Handle("GET /api/cards/{id}/image", authMW(http.HandlerFunc(cardsHandler.GetImage)))

	mux.Handle("GET /api/dashboard", authMW(http.HandlerFunc(dashboardHandler.Get)))

	mux.Handle("GET /api/profile", authMW(http.HandlerFunc(profileHandler.Get)))
	mux.Handle("PUT /api/profile", authMW(http.HandlerFunc(profileHandler.Update)))

	return mux
}
