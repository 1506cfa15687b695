package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/liamwears/cinedex/internal/services"
)

// TMDBHandler serves the TMDB-backed detail endpoints
type TMDBHandler struct {
	details *services.DetailService
	genres  *services.GenreCatalog
	views   *services.ViewRegistry
	logger  *log.Logger
}

// NewTMDBHandler creates a new TMDB handler
func NewTMDBHandler(details *services.DetailService, genres *services.GenreCatalog, views *services.ViewRegistry, logger *log.Logger) *TMDBHandler {
	return &TMDBHandler{
		details: details,
		genres:  genres,
		views:   views,
		logger:  logger,
	}
}

// Home handles GET /api/home. Landing on the home page resets every listing.
func (h *TMDBHandler) Home(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}
	h.views.For(visitor).ResetAll()

	home, err := h.details.Home(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, http.StatusBadGateway, "Failed to fetch movies")
		return
	}

	writeJSON(w, http.StatusOK, home)
}

// Genres handles GET /api/genres
func (h *TMDBHandler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.genres.Genres(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, http.StatusBadGateway, "Failed to fetch genres")
		return
	}

	writeJSON(w, http.StatusOK, genres)
}

// GetMovie handles GET /api/movies/{id}
func (h *TMDBHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || movieID < 1 {
		http.Error(w, `{"error":"Invalid movie ID"}`, http.StatusBadRequest)
		return
	}
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}

	movie, err := h.details.Movie(r.Context(), visitor, movieID)
	if err != nil {
		writeServiceError(w, h.logger, err, http.StatusBadGateway, "Failed to fetch movie")
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

// GetPerson handles GET /api/people/{id}
func (h *TMDBHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	personID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || personID < 1 {
		http.Error(w, `{"error":"Invalid person ID"}`, http.StatusBadRequest)
		return
	}

	person, err := h.details.Person(r.Context(), personID)
	if err != nil {
		writeServiceError(w, h.logger, err, http.StatusBadGateway, "Failed to fetch person")
		return
	}

	writeJSON(w, http.StatusOK, person)
}
