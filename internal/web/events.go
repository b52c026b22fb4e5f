package web

import (
	"net/http"

	"github.com/erazemk/pokestock/internal/api"
)

// Events handles GET /events, the change feed the pages use to refresh
// themselves when cards change elsewhere.
func (s *Server) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, err := s.Cards.For(GetApp(r.Context()).Session.UserID).Subscribe(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	api.ServeEvents(w, flusher, r, events)
}
