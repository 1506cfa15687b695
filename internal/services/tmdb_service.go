package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/liamwears/cinedex/internal/models"
)

// ErrNotFound is returned when TMDB has no record for the requested ID
var ErrNotFound = errors.New("not found on TMDB")

// TMDBService handles interactions with The Movie Database API
type TMDBService struct {
	client       *http.Client
	apiKey       string
	baseURL      string
	imageBaseURL string
	attempts     uint
	retryDelay   time.Duration
	logger       *log.Logger
}

// TMDBConfig holds TMDB service configuration
type TMDBConfig struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Timeout      time.Duration
	// Attempts is how often a request is tried when TMDB answers 429 or 5xx
	Attempts   uint
	RetryDelay time.Duration
	// HTTPClient overrides the default client, mostly for tests
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewTMDBService creates a new TMDB service
func NewTMDBService(cfg TMDBConfig) *TMDBService {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 300 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &TMDBService{
		client:       client,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		imageBaseURL: cfg.ImageBaseURL,
		attempts:     cfg.Attempts,
		retryDelay:   cfg.RetryDelay,
		logger:       cfg.Logger,
	}
}

// tmdbMovie is the movie shape shared by TMDB list and detail endpoints.
// List records carry genre_ids, detail records carry genres.
type tmdbMovie struct {
	ID               int            `json:"id"`
	Title            string         `json:"title"`
	OriginalTitle    string         `json:"original_title"`
	Overview         string         `json:"overview"`
	ReleaseDate      string         `json:"release_date"`
	OriginalLanguage string         `json:"original_language"`
	VoteAverage      *float64       `json:"vote_average"`
	GenreIDs         []int          `json:"genre_ids"`
	Genres           []models.Genre `json:"genres"`
	PosterPath       *string        `json:"poster_path"`
	BackdropPath     *string        `json:"backdrop_path"`
	Tagline          string         `json:"tagline"`
	Runtime          *int           `json:"runtime"`
	Budget           int64          `json:"budget"`
	Revenue          int64          `json:"revenue"`
}

type tmdbMoviePage struct {
	Page         int         `json:"page"`
	Results      []tmdbMovie `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

type tmdbCredits struct {
	Cast []struct {
		ID          int     `json:"id"`
		Name        string  `json:"name"`
		Character   string  `json:"character"`
		ProfilePath *string `json:"profile_path"`
	} `json:"cast"`
	Crew []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Job  string `json:"job"`
	} `json:"crew"`
}

type tmdbPerson struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	Biography          string  `json:"biography"`
	Gender             int     `json:"gender"`
	Birthday           *string `json:"birthday"`
	Deathday           *string `json:"deathday"`
	PlaceOfBirth       *string `json:"place_of_birth"`
	KnownForDepartment string  `json:"known_for_department"`
	ProfilePath        *string `json:"profile_path"`
}

type tmdbPersonCredits struct {
	Cast []tmdbMovie `json:"cast"`
}

type tmdbGenreList struct {
	Genres []models.Genre `json:"genres"`
}

// nonEmpty turns blank strings into nil
func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func nonEmptyPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return nonEmpty(*s)
}

func (m tmdbMovie) toMovie() models.Movie {
	movie := models.Movie{
		ID:         m.ID,
		Title:      m.Title,
		Overview:   m.Overview,
		Language:   nonEmpty(m.OriginalLanguage),
		Rating:     m.VoteAverage,
		GenreIDs:   m.GenreIDs,
		PosterPath: nonEmptyPtr(m.PosterPath),
	}
	if movie.Title == "" {
		movie.Title = m.OriginalTitle
	}
	if released, err := time.Parse("2006-01-02", m.ReleaseDate); err == nil {
		movie.ReleaseDate = &released
	}
	if len(movie.GenreIDs) == 0 && len(m.Genres) > 0 {
		movie.GenreIDs = make([]int, 0, len(m.Genres))
		for _, g := range m.Genres {
			movie.GenreIDs = append(movie.GenreIDs, g.ID)
		}
	}
	if movie.GenreIDs == nil {
		movie.GenreIDs = []int{}
	}
	return movie
}

func (m tmdbMovie) toDetail() *models.MovieDetail {
	detail := &models.MovieDetail{
		Movie:        m.toMovie(),
		Tagline:      nonEmpty(m.Tagline),
		BackdropPath: nonEmptyPtr(m.BackdropPath),
		Genres:       m.Genres,
	}
	if m.Runtime != nil && *m.Runtime > 0 {
		detail.Runtime = m.Runtime
	}
	if m.Budget > 0 {
		detail.Budget = &m.Budget
	}
	if m.Revenue > 0 {
		detail.Revenue = &m.Revenue
	}
	if detail.Genres == nil {
		detail.Genres = []models.Genre{}
	}
	return detail
}

func toMovies(results []tmdbMovie) []models.Movie {
	movies := make([]models.Movie, 0, len(results))
	for _, r := range results {
		movies = append(movies, r.toMovie())
	}
	return movies
}

func (p tmdbMoviePage) toPage() *models.MoviePage {
	return &models.MoviePage{
		Results:      toMovies(p.Results),
		Page:         p.Page,
		TotalPages:   p.TotalPages,
		TotalResults: p.TotalResults,
	}
}

// usesBearer reports whether the key is a v4 read access token (a JWT)
// rather than a v3 api_key.
func (s *TMDBService) usesBearer() bool {
	return strings.Count(s.apiKey, ".") == 2
}

// doRequest performs a GET against the TMDB API and decodes the JSON body
// into v. Rate limiting (429), server errors and transport failures are
// retried with exponential backoff; other statuses fail at once.
func (s *TMDBService) doRequest(ctx context.Context, endpoint string, params map[string]string, v any) error {
	url := fmt.Sprintf("%s%s", s.baseURL, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	q := req.URL.Query()
	if s.usesBearer() {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	} else {
		q.Set("api_key", s.apiKey)
	}
	q.Set("language", "en-US")
	for key, value := range params {
		q.Set(key, value)
	}
	req.URL.RawQuery = q.Encode()

	var body []byte
	err = retry.Do(
		func() error {
			resp, err := s.client.Do(req)
			if err != nil {
				return fmt.Errorf("failed to execute request: %w", err)
			}
			defer resp.Body.Close()

			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response body: %w", err)
			}

			switch {
			case resp.StatusCode == http.StatusOK:
				body = b
				return nil
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(fmt.Errorf("%s: %w", endpoint, ErrNotFound))
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return fmt.Errorf("TMDB API error: status %d, body: %s", resp.StatusCode, string(b))
			default:
				return retry.Unrecoverable(fmt.Errorf("TMDB API error: status %d, body: %s", resp.StatusCode, string(b)))
			}
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Printf("[tmdb] %s failed (attempt %d/%d): %v", endpoint, n+1, s.attempts, err)
		}),
	)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", endpoint, err)
	}
	return nil
}

func pageParams(page int) map[string]string {
	if page < 1 {
		page = 1
	}
	return map[string]string{"page": strconv.Itoa(page)}
}

func (s *TMDBService) moviePage(ctx context.Context, endpoint string, params map[string]string) (*models.MoviePage, error) {
	var page tmdbMoviePage
	if err := s.doRequest(ctx, endpoint, params, &page); err != nil {
		return nil, err
	}
	return page.toPage(), nil
}

// PopularMovies gets a page of the popularity list
func (s *TMDBService) PopularMovies(ctx context.Context, page int) (*models.MoviePage, error) {
	return s.moviePage(ctx, "/movie/popular", pageParams(page))
}

// TopRatedMovies gets a page of the top rated list
func (s *TMDBService) TopRatedMovies(ctx context.Context, page int) (*models.MoviePage, error) {
	return s.moviePage(ctx, "/movie/top_rated", pageParams(page))
}

// SearchMovies searches for movies by title
func (s *TMDBService) SearchMovies(ctx context.Context, query string, page int) (*models.MoviePage, error) {
	params := pageParams(page)
	params["query"] = query
	params["include_adult"] = "false"
	return s.moviePage(ctx, "/search/movie", params)
}

// Recommendations gets movies TMDB recommends alongside a movie
func (s *TMDBService) Recommendations(ctx context.Context, movieID int) (*models.MoviePage, error) {
	return s.moviePage(ctx, fmt.Sprintf("/movie/%d/recommendations", movieID), pageParams(1))
}

// GetMovie retrieves a movie by ID
func (s *TMDBService) GetMovie(ctx context.Context, movieID int) (*models.MovieDetail, error) {
	var movie tmdbMovie
	if err := s.doRequest(ctx, fmt.Sprintf("/movie/%d", movieID), nil, &movie); err != nil {
		return nil, err
	}
	return movie.toDetail(), nil
}

// GetCredits retrieves the cast and crew of a movie
func (s *TMDBService) GetCredits(ctx context.Context, movieID int) (*models.Credits, error) {
	var raw tmdbCredits
	if err := s.doRequest(ctx, fmt.Sprintf("/movie/%d/credits", movieID), nil, &raw); err != nil {
		return nil, err
	}

	credits := &models.Credits{
		Cast: make([]models.CastMember, 0, len(raw.Cast)),
		Crew: make([]models.CrewMember, 0, len(raw.Crew)),
	}
	for _, c := range raw.Cast {
		credits.Cast = append(credits.Cast, models.CastMember{
			ID:          c.ID,
			Name:        c.Name,
			Character:   c.Character,
			ProfilePath: nonEmptyPtr(c.ProfilePath),
		})
	}
	for _, c := range raw.Crew {
		credits.Crew = append(credits.Crew, models.CrewMember{ID: c.ID, Name: c.Name, Job: c.Job})
	}
	return credits, nil
}

// GetPerson retrieves an actor or crew member by ID
func (s *TMDBService) GetPerson(ctx context.Context, personID int) (*models.Person, error) {
	var raw tmdbPerson
	if err := s.doRequest(ctx, fmt.Sprintf("/person/%d", personID), nil, &raw); err != nil {
		return nil, err
	}

	return &models.Person{
		ID:                 raw.ID,
		Name:               raw.Name,
		Biography:          nonEmpty(raw.Biography),
		Gender:             raw.Gender,
		Birthday:           nonEmptyPtr(raw.Birthday),
		Deathday:           nonEmptyPtr(raw.Deathday),
		PlaceOfBirth:       nonEmptyPtr(raw.PlaceOfBirth),
		KnownForDepartment: nonEmpty(raw.KnownForDepartment),
		ProfilePath:        nonEmptyPtr(raw.ProfilePath),
	}, nil
}

// GetPersonMovies retrieves the movies a person appeared in
func (s *TMDBService) GetPersonMovies(ctx context.Context, personID int) ([]models.Movie, error) {
	var raw tmdbPersonCredits
	if err := s.doRequest(ctx, fmt.Sprintf("/person/%d/movie_credits", personID), nil, &raw); err != nil {
		return nil, err
	}
	return toMovies(raw.Cast), nil
}

// GetGenres retrieves the movie genre list
func (s *TMDBService) GetGenres(ctx context.Context) ([]models.Genre, error) {
	var raw tmdbGenreList
	if err := s.doRequest(ctx, "/genre/movie/list", nil, &raw); err != nil {
		return nil, err
	}
	return raw.Genres, nil
}

// GetImageURL returns the full URL for an image path, or "" when there is none
func (s *TMDBService) GetImageURL(path *string) string {
	if path == nil || *path == "" {
		return ""
	}
	return s.imageBaseURL + "/" + strings.TrimPrefix(*path, "/")
}
