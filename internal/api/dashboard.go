package api

import (
	"net/http"

	"github.com/erazemk/pokestock/internal/inventory"
	"github.com/erazemk/pokestock/internal/remote"
)

// DashboardHandler serves collection statistics.
type DashboardHandler struct {
	Cards *remote.Store
}

type dashboardResponse struct {
	Range inventory.Range `json:"range"`
	inventory.Summary
}

// Get handles GET /api/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Query().Get("range")
	if param == "" {
		param = string(inventory.RangeMonth)
	}
	rng, err := inventory.ParseRange(param)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	m := inventory.New(h.Cards.For(GetClaims(r.Context()).UserID))
	m.SetRange(rng)
	if err := m.Load(r.Context()); err != nil {
		storeError(w, err, "load dashboard")
		return
	}

	jsonResponse(w, http.StatusOK, dashboardResponse{Range: rng, Summary: m.Summary()})
}
