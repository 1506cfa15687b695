package listing

import (
	"errors"

	"github.com/liamwears/cinedex/internal/models"
)

// ErrUnknownGenre is returned when a genre is not part of the catalog
var ErrUnknownGenre = errors.New("unknown genre")

// HasActiveGenres reports whether a movie matches every active genre.
// An empty selection matches everything.
func HasActiveGenres(movieGenreIDs []int, active []int) bool {
	if len(active) == 0 {
		return true
	}

	owned := make(map[int]struct{}, len(movieGenreIDs))
	for _, id := range movieGenreIDs {
		owned[id] = struct{}{}
	}

	for _, id := range active {
		if _, ok := owned[id]; !ok {
			return false
		}
	}
	return true
}

// FilterMovies keeps the movies matching the active genre selection
func FilterMovies(movies []models.Movie, active []int) []models.Movie {
	filtered := make([]models.Movie, 0, len(movies))
	for _, m := range movies {
		if HasActiveGenres(m.GenreIDs, active) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// AvailableGenres returns the catalog genres that occur in at least one movie,
// in catalog order.
func AvailableGenres(catalog []models.Genre, movies []models.Movie) []models.Genre {
	present := make(map[int]struct{})
	for _, m := range movies {
		for _, id := range m.GenreIDs {
			present[id] = struct{}{}
		}
	}

	available := make([]models.Genre, 0, len(present))
	for _, g := range catalog {
		if _, ok := present[g.ID]; ok {
			available = append(available, g)
		}
	}
	return available
}

func inCatalog(catalog []models.Genre, id int) bool {
	for _, g := range catalog {
		if g.ID == id {
			return true
		}
	}
	return false
}
