package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/liamwears/cinedex/internal/models"
)

const (
	// HomeRowSize is how many movies each home page row shows
	HomeRowSize = 12
	// MainCastSize is how many cast members a movie page shows
	MainCastSize = 12
	// RecommendationCount is how many recommendations a movie page shows
	RecommendationCount = 4
	// KnownForCount is how many movies a person page shows
	KnownForCount = 8
)

// Home is the landing page content
type Home struct {
	Popular  []models.Movie `json:"popular"`
	TopRated []models.Movie `json:"topRated"`
}

// MovieView is everything the movie page shows
type MovieView struct {
	Movie           *models.MovieDetail `json:"movie"`
	Director        *models.CrewMember  `json:"director"`
	Cast            []models.CastMember `json:"cast"`
	Recommendations []models.Movie      `json:"recommendations"`
	InFavourites    bool                `json:"inFavourites"`
}

// PersonView is everything the actor page shows
type PersonView struct {
	Person   *models.Person `json:"person"`
	KnownFor []models.Movie `json:"knownFor"`
}

// DetailService assembles the non-listing pages from several TMDB calls
type DetailService struct {
	tmdb       *TMDBService
	favourites *FavouritesStore
}

// NewDetailService creates a detail service
func NewDetailService(tmdb *TMDBService, favourites *FavouritesStore) *DetailService {
	return &DetailService{tmdb: tmdb, favourites: favourites}
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// Home loads the first rows of the popular and top rated lists
func (s *DetailService) Home(ctx context.Context) (*Home, error) {
	popular, err := s.tmdb.PopularMovies(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to load popular movies: %w", err)
	}
	topRated, err := s.tmdb.TopRatedMovies(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to load top rated movies: %w", err)
	}

	return &Home{
		Popular:  firstN(popular.Results, HomeRowSize),
		TopRated: firstN(topRated.Results, HomeRowSize),
	}, nil
}

// Movie loads a movie, then its recommendations, then its credits, and
// finally checks whether the visitor has it in favourites
func (s *DetailService) Movie(ctx context.Context, visitorID uuid.UUID, movieID int) (*MovieView, error) {
	movie, err := s.tmdb.GetMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}

	recommended, err := s.tmdb.Recommendations(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendations: %w", err)
	}

	credits, err := s.tmdb.GetCredits(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to load credits: %w", err)
	}

	inFavourites, err := s.favourites.Contains(ctx, visitorID, strconv.Itoa(movieID))
	if err != nil {
		return nil, err
	}

	return &MovieView{
		Movie:           movie,
		Director:        credits.Director(),
		Cast:            firstN(credits.Cast, MainCastSize),
		Recommendations: firstN(recommended.Results, RecommendationCount),
		InFavourites:    inFavourites,
	}, nil
}

// Person loads a person and the first movies they are known for
func (s *DetailService) Person(ctx context.Context, personID int) (*PersonView, error) {
	person, err := s.tmdb.GetPerson(ctx, personID)
	if err != nil {
		return nil, err
	}

	movies, err := s.tmdb.GetPersonMovies(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to load movie credits: %w", err)
	}

	return &PersonView{
		Person:   person,
		KnownFor: firstN(movies, KnownForCount),
	}, nil
}
