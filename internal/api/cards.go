package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/pokestock/internal/imaging"
	"github.com/erazemk/pokestock/internal/model"
	"github.com/erazemk/pokestock/internal/remote"
)

// CardsHandler handles card endpoints. Every request is limited to the
// caller's own cards.
type CardsHandler struct {
	Cards *remote.Store
}

// cardRequest accepts the price as a JSON number or a string so that raw
// form input is validated the same way on every path.
type cardRequest struct {
	Name      string `json:"name"`
	Set       string `json:"set"`
	Condition string `json:"condition"`
	Price     any    `json:"price"`
}

func (req cardRequest) draft() model.Draft {
	d := model.Draft{Name: req.Name, Set: req.Set, Condition: req.Condition}
	switch p := req.Price.(type) {
	case float64:
		d.Price = strconv.FormatFloat(p, 'f', -1, 64)
	case string:
		d.Price = p
	}
	return d
}

func (h *CardsHandler) scoped(r *http.Request) *remote.Scoped {
	return h.Cards.For(GetClaims(r.Context()).UserID)
}

func cardID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid card id")
		return 0, false
	}
	return id, true
}

// List handles GET /api/cards.
func (h *CardsHandler) List(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = t
	}

	cards, err := h.scoped(r).Query(r.Context(), since)
	if err != nil {
		storeError(w, err, "list cards")
		return
	}
	if cards == nil {
		cards = []model.Card{}
	}
	jsonResponse(w, http.StatusOK, cards)
}

// Create handles POST /api/cards.
func (h *CardsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := req.draft().Validate()
	if err != nil {
		storeError(w, err, "create card")
		return
	}

	card, err := h.scoped(r).Insert(r.Context(), in)
	if err != nil {
		storeError(w, err, "create card")
		return
	}
	jsonResponse(w, http.StatusCreated, card)
}

// Get handles GET /api/cards/{id}.
func (h *CardsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := cardID(w, r)
	if !ok {
		return
	}

	card, err := h.scoped(r).Get(r.Context(), id)
	if err != nil {
		storeError(w, err, "get card")
		return
	}
	jsonResponse(w, http.StatusOK, card)
}

// Update handles PUT /api/cards/{id}.
func (h *CardsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := cardID(w, r)
	if !ok {
		return
	}

	var req cardRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := req.draft().Validate()
	if err != nil {
		storeError(w, err, "update card")
		return
	}

	card, err := h.scoped(r).Update(r.Context(), id, in)
	if err != nil {
		storeError(w, err, "update card")
		return
	}
	jsonResponse(w, http.StatusOK, card)
}

// Delete handles DELETE /api/cards/{id}.
func (h *CardsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := cardID(w, r)
	if !ok {
		return
	}

	if err := h.scoped(r).Delete(r.Context(), id); err != nil {
		storeError(w, err, "delete card")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "card deleted"})
}

// UploadImage handles PUT /api/cards/{id}/image.
func (h *CardsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := cardID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<16)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	img, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.scoped(r).SetImage(r.Context(), id, img.Data, img.MIME); err != nil {
		storeError(w, err, "save image")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/cards/{id}/image.
func (h *CardsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := cardID(w, r)
	if !ok {
		return
	}

	data, mime, err := h.scoped(r).Image(r.Context(), id)
	if err != nil {
		storeError(w, err, "get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}

// heartbeatInterval keeps idle event streams open through proxies.
const heartbeatInterval = 25 * time.Second

// Events handles GET /api/cards/events. It streams the caller's change
// events as server-sent events until the client disconnects.
func (h *CardsHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, err := h.scoped(r).Subscribe(r.Context())
	if err != nil {
		storeError(w, err, "subscribe")
		return
	}
	ServeEvents(w, flusher, r, events)
}

// ServeEvents writes events as a text/event-stream until the feed or the
// request ends.
func ServeEvents(w http.ResponseWriter, flusher http.Flusher, r *http.Request, events <-chan model.ChangeEvent) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				slog.Error("encoding change event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: change\ndata: %s\n\n", ev.ID, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
