package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/pokestock/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// storeError maps a store or validation error to a response.
func storeError(w http.ResponseWriter, err error, action string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonResponse(w, http.StatusBadRequest, map[string]string{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, "card not found")
	case errors.Is(err, model.ErrSessionExpired):
		jsonError(w, http.StatusUnauthorized, "session expired")
	default:
		slog.Error("request failed", "action", action, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
