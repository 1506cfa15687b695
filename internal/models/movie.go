package models

import (
	"strings"
	"time"
)

// Genre is a TMDB movie genre
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Movie is a summary movie record as shown in listing grids.
// Optional TMDB fields are nil when the API omitted or blanked them.
type Movie struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Overview    string     `json:"overview,omitempty"`
	ReleaseDate *time.Time `json:"releaseDate"`
	Language    *string    `json:"language"`
	Rating      *float64   `json:"rating"`
	GenreIDs    []int      `json:"genreIds"`
	PosterPath  *string    `json:"posterPath"`
}

// Year returns the release year, or "N/A" when the date is unknown
func (m Movie) Year() string {
	if m.ReleaseDate == nil {
		return "N/A"
	}
	return m.ReleaseDate.Format("2006")
}

// MovieDetail is the full record behind the movie page
type MovieDetail struct {
	Movie
	Tagline      *string `json:"tagline"`
	Runtime      *int    `json:"runtime"`
	Budget       *int64  `json:"budget"`
	Revenue      *int64  `json:"revenue"`
	BackdropPath *string `json:"backdropPath"`
	Genres       []Genre `json:"genres"`
}

// GenreNames joins the detail genres for display
func (d MovieDetail) GenreNames() string {
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}

// MoviePage is one page of a paginated TMDB movie list
type MoviePage struct {
	Results      []Movie `json:"results"`
	Page         int     `json:"page"`
	TotalPages   int     `json:"totalPages"`
	TotalResults int     `json:"totalResults"`
}
