package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/pokestock/internal/inventory"
)

// Dashboard handles GET /.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	rng, err := inventory.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		rng = inventory.RangeMonth
	}

	m := s.model(r)
	m.SetRange(rng)
	page := PageData{Title: "Dashboard", App: GetApp(r.Context()), Live: true}
	if err := m.Load(r.Context()); err != nil {
		slog.Error("failed to load cards for dashboard", "error", err)
		page.Error = "Could not load your collection."
	}

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		Range   inventory.Range
		Ranges  []inventory.Range
		Summary inventory.Summary
	}{
		PageData: page,
		Range:    rng,
		Ranges:   inventory.Ranges,
		Summary:  m.Summary(),
	})
}
