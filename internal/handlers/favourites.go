package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/liamwears/cinedex/internal/services"
)

// FavouritesHandler manages the visitor's favourites list
type FavouritesHandler struct {
	store  *services.FavouritesStore
	logger *log.Logger
}

// NewFavouritesHandler creates a new favourites handler
func NewFavouritesHandler(store *services.FavouritesStore, logger *log.Logger) *FavouritesHandler {
	return &FavouritesHandler{
		store:  store,
		logger: logger,
	}
}

// List handles GET /api/favourites
func (h *FavouritesHandler) List(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	offset, _ := strconv.Atoi(query.Get("offset"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = services.FavouritesPageSize
	}

	ids, total, err := h.store.List(r.Context(), visitor, offset, limit)
	if err != nil {
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "Failed to fetch favourites")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ids":    ids,
		"total":  total,
		"offset": max(offset, 0),
		"limit":  limit,
	})
}

// movieID validates the {id} path value
func movieID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if n, err := strconv.Atoi(id); err != nil || n < 1 {
		http.Error(w, `{"error":"Invalid movie ID"}`, http.StatusBadRequest)
		return "", false
	}
	return id, true
}

// Add handles PUT /api/favourites/{id}
func (h *FavouritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}
	id, ok := movieID(w, r)
	if !ok {
		return
	}

	if err := h.store.Add(r.Context(), visitor, id); err != nil {
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "Failed to add favourite")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Remove handles DELETE /api/favourites/{id}
func (h *FavouritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}
	id, ok := movieID(w, r)
	if !ok {
		return
	}

	if err := h.store.Remove(r.Context(), visitor, id); err != nil {
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "Failed to remove favourite")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/favourites
func (h *FavouritesHandler) Clear(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}

	if err := h.store.Clear(r.Context(), visitor); err != nil {
		writeServiceError(w, h.logger, err, http.StatusInternalServerError, "Failed to clear favourites")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
