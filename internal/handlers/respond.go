package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/liamwears/cinedex/internal/listing"
	"github.com/liamwears/cinedex/internal/middleware"
	"github.com/liamwears/cinedex/internal/services"
)

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a {"error": msg} body
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors to a status code and logs the rest.
// fallback is used for errors with no specific mapping.
func writeServiceError(w http.ResponseWriter, logger *log.Logger, err error, fallback int, msg string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrUnknownView):
		writeError(w, http.StatusNotFound, "Unknown view")
	case errors.Is(err, listing.ErrUnknownGenre):
		writeError(w, http.StatusBadRequest, "Unknown genre")
	case errors.Is(err, listing.ErrSortUnsupported):
		writeError(w, http.StatusBadRequest, "This view cannot be sorted")
	case errors.Is(err, services.ErrMalformedFavourites):
		logger.Printf("%s: %v", msg, err)
		writeError(w, http.StatusInternalServerError, "Favourites data is malformed, clear it to recover")
	default:
		logger.Printf("%s: %v", msg, err)
		writeError(w, fallback, msg)
	}
}

// visitorID reads the visitor from the request context, answering 500 when
// the visitor middleware did not run.
func visitorID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.GetVisitorIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"Visitor session missing"}`, http.StatusInternalServerError)
	}
	return id, ok
}
