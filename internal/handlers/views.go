package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/liamwears/cinedex/internal/listing"
	"github.com/liamwears/cinedex/internal/models"
	"github.com/liamwears/cinedex/internal/services"
)

// ViewHandler exposes the listing views as a JSON API. Every mutating call
// answers with the listing snapshot after the change.
type ViewHandler struct {
	views  *services.ViewRegistry
	genres *services.GenreCatalog
	logger *log.Logger
}

// NewViewHandler creates a new view handler
func NewViewHandler(views *services.ViewRegistry, genres *services.GenreCatalog, logger *log.Logger) *ViewHandler {
	return &ViewHandler{
		views:  views,
		genres: genres,
		logger: logger,
	}
}

// state resolves {view} for the current visitor, writing the error response
// when it cannot.
func (h *ViewHandler) state(w http.ResponseWriter, r *http.Request) (*listing.State, bool) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return nil, false
	}

	state, err := h.views.For(visitor).Get(r.PathValue("view"))
	if err != nil {
		writeServiceError(w, h.logger, err, http.StatusNotFound, "Unknown view")
		return nil, false
	}
	return state, true
}

// catalog returns the genre catalog, or nil when it cannot be loaded.
// Snapshots then list no available genres.
func (h *ViewHandler) catalog(ctx context.Context) []models.Genre {
	genres, err := h.genres.Genres(ctx)
	if err != nil {
		h.logger.Printf("Failed to load genre catalog: %v", err)
		return nil
	}
	return genres
}

// load runs the fetch cycle. Failures are carried by the snapshot status.
func (h *ViewHandler) load(ctx context.Context, state *listing.State) {
	err := state.Load(ctx)
	if err != nil && !errors.Is(err, listing.ErrSuperseded) {
		h.logger.Printf("Listing fetch failed: %v", err)
	}
}

func (h *ViewHandler) respond(w http.ResponseWriter, r *http.Request, state *listing.State) {
	writeJSON(w, http.StatusOK, state.Snapshot(h.catalog(r.Context())))
}

// Get handles GET /api/views/{view}
func (h *ViewHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}
	h.respond(w, r, state)
}

// Load handles POST /api/views/{view}/load
func (h *ViewHandler) Load(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}
	h.load(r.Context(), state)
	h.respond(w, r, state)
}

// ChangePage handles POST /api/views/{view}/page. Pages outside the listing
// leave it untouched.
func (h *ViewHandler) ChangePage(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}

	var input struct {
		Page int `json:"page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if state.ChangeCurrentPage(input.Page) {
		h.load(r.Context(), state)
	}
	h.respond(w, r, state)
}

// ToggleGenre handles POST /api/views/{view}/genres/{id}
func (h *ViewHandler) ToggleGenre(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}

	genreID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"Invalid genre ID"}`, http.StatusBadRequest)
		return
	}

	catalog, err := h.genres.Genres(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, http.StatusBadGateway, "Failed to fetch genres")
		return
	}
	if err := state.ToggleGenre(genreID, catalog); err != nil {
		writeServiceError(w, h.logger, err, http.StatusBadRequest, "Failed to toggle genre")
		return
	}

	writeJSON(w, http.StatusOK, state.Snapshot(catalog))
}

// Reset handles POST /api/views/{view}/reset
func (h *ViewHandler) Reset(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}
	state.Reset()
	h.respond(w, r, state)
}

// Search handles POST /api/views/{view}/query
func (h *ViewHandler) Search(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}
	if !state.Variant().Searchable {
		http.Error(w, `{"error":"This view cannot be searched"}`, http.StatusBadRequest)
		return
	}

	var input struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	err := state.Submit(r.Context(), input.Query)
	if err != nil && !errors.Is(err, listing.ErrSuperseded) {
		h.logger.Printf("Search failed: %v", err)
	}
	h.respond(w, r, state)
}

// SetSort handles PUT /api/views/{view}/sort
func (h *ViewHandler) SetSort(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}

	var input struct {
		Sort string `json:"sort"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	order, err := listing.ParseSortOrder(input.Sort)
	if err != nil {
		http.Error(w, `{"error":"Unknown sort order"}`, http.StatusBadRequest)
		return
	}
	if err := state.SetSort(order); err != nil {
		writeServiceError(w, h.logger, err, http.StatusBadRequest, "Failed to sort")
		return
	}

	h.respond(w, r, state)
}
