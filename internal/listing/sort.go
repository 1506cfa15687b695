package listing

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/liamwears/cinedex/internal/models"
)

// ErrSortUnsupported is returned when a view has no sort control
var ErrSortUnsupported = errors.New("sorting is only available on search results")

// SortOrder is a display-only ordering of a fetched page
type SortOrder string

const (
	SortFeatured SortOrder = "Featured"
	SortNewest   SortOrder = "Newest"
	SortOldest   SortOrder = "Oldest"
	SortRating   SortOrder = "Rating"
)

// SortOrders lists the orders in the order the dropdown shows them
var SortOrders = []SortOrder{SortFeatured, SortNewest, SortOldest, SortRating}

// ParseSortOrder matches a sort order name case-insensitively
func ParseSortOrder(s string) (SortOrder, error) {
	for _, o := range SortOrders {
		if strings.EqualFold(string(o), strings.TrimSpace(s)) {
			return o, nil
		}
	}
	return "", fmt.Errorf("invalid sort order: %q", s)
}

// SortMovies returns a reordered copy of movies, which must be in fetch order.
// Movies without a release date or rating sort last.
func SortMovies(movies []models.Movie, order SortOrder) []models.Movie {
	sorted := slices.Clone(movies)

	switch order {
	case SortNewest:
		slices.SortStableFunc(sorted, func(a, b models.Movie) int {
			return compareMissingLast(a.ReleaseDate == nil, b.ReleaseDate == nil, func() int {
				return b.ReleaseDate.Compare(*a.ReleaseDate)
			})
		})
	case SortOldest:
		slices.SortStableFunc(sorted, func(a, b models.Movie) int {
			return compareMissingLast(a.ReleaseDate == nil, b.ReleaseDate == nil, func() int {
				return a.ReleaseDate.Compare(*b.ReleaseDate)
			})
		})
	case SortRating:
		slices.SortStableFunc(sorted, func(a, b models.Movie) int {
			return compareMissingLast(a.Rating == nil, b.Rating == nil, func() int {
				return cmp.Compare(*b.Rating, *a.Rating)
			})
		})
	}

	return sorted
}

func compareMissingLast(aMissing, bMissing bool, both func() int) int {
	switch {
	case aMissing && bMissing:
		return 0
	case aMissing:
		return 1
	case bMissing:
		return -1
	default:
		return both()
	}
}
