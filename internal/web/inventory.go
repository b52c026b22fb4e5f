package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/pokestock/internal/imaging"
	"github.com/erazemk/pokestock/internal/inventory"
	"github.com/erazemk/pokestock/internal/model"
)

type inventoryPage struct {
	PageData
	Filter     string
	Cards      []model.Card
	Total      int
	Matching   int
	PageNum    int
	PageCount  int
	Draft      model.Draft
	Conditions []string
}

func (s *Server) renderInventory(w http.ResponseWriter, r *http.Request, m *inventory.Model, status int, page PageData, draft model.Draft) {
	// Page numbers in links are 1-based; Model.Page is 0-based.
	pageCount := m.PageCount()
	pageNum, _ := strconv.Atoi(r.FormValue("page"))
	pageNum = min(max(pageNum, 1), pageCount)

	page.Title = "Inventory"
	page.App = GetApp(r.Context())
	page.Live = true
	s.Templates.RenderStatus(w, status, "inventory.html", &inventoryPage{
		PageData:   page,
		Filter:     m.Filter(),
		Cards:      m.Page(pageNum - 1),
		Total:      len(m.Cards()),
		Matching:   len(m.Visible()),
		PageNum:    pageNum,
		PageCount:  pageCount,
		Draft:      draft,
		Conditions: model.Conditions,
	})
}

// InventoryPage handles GET /inventory.
func (s *Server) InventoryPage(w http.ResponseWriter, r *http.Request) {
	m := s.model(r)
	m.SetFilter(r.URL.Query().Get("q"))

	var page PageData
	if err := m.Load(r.Context()); err != nil {
		slog.Error("failed to list cards", "error", err)
		page.Error = "Could not load your cards."
	}
	if r.URL.Query().Get("saved") != "" {
		page.Success = "Saved."
	}
	s.renderInventory(w, r, m, http.StatusOK, page, model.Draft{})
}

func draftFromForm(r *http.Request) model.Draft {
	return model.Draft{
		Name:      r.FormValue("name"),
		Set:       r.FormValue("set"),
		Condition: r.FormValue("condition"),
		Price:     r.FormValue("price"),
	}
}

// writeErrorMessage turns a view-model write error into text for the form.
func writeErrorMessage(err error) string {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return fmt.Sprintf("Check the %s field: %s.", verr.Field, verr.Reason)
	case errors.Is(err, model.ErrNotFound):
		return "That card no longer exists."
	default:
		return "Could not save the card. Try again."
	}
}

// CardCreateSubmit handles POST /inventory.
func (s *Server) CardCreateSubmit(w http.ResponseWriter, r *http.Request) {
	m := s.model(r)
	draft := draftFromForm(r)

	if _, err := m.Create(r.Context(), draft); err != nil {
		var verr *model.ValidationError
		status := http.StatusBadRequest
		if !errors.As(err, &verr) {
			slog.Error("failed to create card", "error", err)
			status = http.StatusInternalServerError
		}
		page := PageData{Error: writeErrorMessage(err)}
		if err := m.Load(r.Context()); err != nil {
			slog.Error("failed to list cards", "error", err)
			page.Error += " Could not load your cards."
		}
		s.renderInventory(w, r, m, status, page, draft)
		return
	}

	http.Redirect(w, r, "/inventory?saved=1", http.StatusSeeOther)
}

type cardPage struct {
	PageData
	Card       *model.Card
	Draft      model.Draft
	Editing    bool
	Conditions []string
}

func (s *Server) loadCard(w http.ResponseWriter, r *http.Request) (*model.Card, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return nil, false
	}

	card, err := s.Cards.For(GetApp(r.Context()).Session.UserID).Get(r.Context(), id)
	if errors.Is(err, model.ErrNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		slog.Error("failed to get card", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return card, true
}

// CardPage handles GET /inventory/{id}. ?edit=1 opens the edit form.
func (s *Server) CardPage(w http.ResponseWriter, r *http.Request) {
	card, ok := s.loadCard(w, r)
	if !ok {
		return
	}

	s.Templates.Render(w, "card.html", &cardPage{
		PageData:   PageData{Title: card.Name, App: GetApp(r.Context()), Live: true},
		Card:       card,
		Draft:      model.DraftFromCard(*card),
		Editing:    r.URL.Query().Get("edit") != "",
		Conditions: model.Conditions,
	})
}

// CardUpdateSubmit handles POST /inventory/{id}.
func (s *Server) CardUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	card, ok := s.loadCard(w, r)
	if !ok {
		return
	}

	draft := draftFromForm(r)
	if _, err := s.model(r).Update(r.Context(), card.ID, draft); err != nil {
		var verr *model.ValidationError
		status := http.StatusBadRequest
		if !errors.As(err, &verr) {
			slog.Error("failed to update card", "card", card.ID, "error", err)
			status = http.StatusInternalServerError
		}
		s.Templates.RenderStatus(w, status, "card.html", &cardPage{
			PageData:   PageData{Title: card.Name, App: GetApp(r.Context()), Error: writeErrorMessage(err)},
			Card:       card,
			Draft:      draft,
			Editing:    true,
			Conditions: model.Conditions,
		})
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/inventory/%d", card.ID), http.StatusSeeOther)
}

// CardDeleteSubmit handles POST /inventory/{id}/delete.
func (s *Server) CardDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := s.model(r).Delete(r.Context(), id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("failed to delete card", "card", id, "error", err)
		http.Error(w, "failed to delete", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}

// CardImageSubmit handles POST /inventory/{id}/image.
func (s *Server) CardImageSubmit(w http.ResponseWriter, r *http.Request) {
	card, ok := s.loadCard(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<16)
	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	img, err := imaging.Process(file)
	if err != nil {
		s.Templates.RenderStatus(w, http.StatusBadRequest, "card.html", &cardPage{
			PageData:   PageData{Title: card.Name, App: GetApp(r.Context()), Error: err.Error()},
			Card:       card,
			Draft:      model.DraftFromCard(*card),
			Conditions: model.Conditions,
		})
		return
	}

	if err := s.Cards.For(card.OwnerID).SetImage(r.Context(), card.ID, img.Data, img.MIME); err != nil {
		slog.Error("failed to save image", "card", card.ID, "error", err)
		http.Error(w, "failed to save image", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/inventory/%d", card.ID), http.StatusSeeOther)
}

// CardImageGet handles GET /inventory/{id}/image.
func (s *Server) CardImageGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	data, mime, err := s.Cards.For(GetApp(r.Context()).Session.UserID).Image(r.Context(), id)
	if err != nil {
		slog.Error("failed to get image", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}
