package services

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTMDB serves canned JSON bodies keyed by request path and counts hits
type fakeTMDB struct {
	*httptest.Server
	routes map[string]string
	hits   atomic.Int64
	last   atomic.Pointer[http.Request]
}

func newFakeTMDB(t *testing.T, routes map[string]string) *fakeTMDB {
	t.Helper()
	f := &fakeTMDB{routes: routes}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		f.last.Store(r)
		body, ok := f.routes[r.URL.Path]
		if !ok {
			http.Error(w, `{"status_message":"The resource you requested could not be found."}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeTMDB) service(apiKey string) *TMDBService {
	return NewTMDBService(TMDBConfig{
		APIKey:       apiKey,
		BaseURL:      f.URL,
		ImageBaseURL: "https://image.tmdb.org/t/p/w500",
		RetryDelay:   time.Millisecond,
		Logger:       discardLogger(),
	})
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

const popularPage = `{
	"page": 1,
	"total_pages": 44012,
	"total_results": 880240,
	"results": [
		{"id": 550, "title": "Fight Club", "release_date": "1999-10-15", "original_language": "en",
		 "vote_average": 8.4, "genre_ids": [18], "poster_path": "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg"},
		{"id": 7, "title": "", "original_title": "Untitled", "release_date": "", "original_language": "",
		 "genre_ids": null, "poster_path": null}
	]
}`

func TestTMDBService_PopularMovies(t *testing.T) {
	fake := newFakeTMDB(t, map[string]string{"/movie/popular": popularPage})
	svc := fake.service("v3key")

	page, err := svc.PopularMovies(context.Background(), 3)
	require.NoError(t, err)

	req := fake.last.Load()
	assert.Equal(t, "3", req.URL.Query().Get("page"))
	assert.Equal(t, "v3key", req.URL.Query().Get("api_key"))
	assert.Empty(t, req.Header.Get("Authorization"))

	require.Len(t, page.Results, 2)
	assert.Equal(t, 44012, page.TotalPages)

	fc := page.Results[0]
	assert.Equal(t, "Fight Club", fc.Title)
	assert.Equal(t, "1999", fc.Year())
	require.NotNil(t, fc.Rating)
	assert.InDelta(t, 8.4, *fc.Rating, 0.001)
	assert.Equal(t, []int{18}, fc.GenreIDs)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg", svc.GetImageURL(fc.PosterPath))

	sparse := page.Results[1]
	assert.Equal(t, "Untitled", sparse.Title)
	assert.Nil(t, sparse.ReleaseDate)
	assert.Equal(t, "N/A", sparse.Year())
	assert.Nil(t, sparse.Language)
	assert.Nil(t, sparse.Rating)
	assert.Nil(t, sparse.PosterPath)
	assert.Equal(t, []int{}, sparse.GenreIDs)
	assert.Empty(t, svc.GetImageURL(sparse.PosterPath))
}

func TestTMDBService_BearerToken(t *testing.T) {
	fake := newFakeTMDB(t, map[string]string{"/movie/top_rated": popularPage})
	svc := fake.service("header.payload.signature")

	_, err := svc.TopRatedMovies(context.Background(), 1)
	require.NoError(t, err)

	req := fake.last.Load()
	assert.Equal(t, "Bearer header.payload.signature", req.Header.Get("Authorization"))
	assert.Empty(t, req.URL.Query().Get("api_key"))
}

func TestTMDBService_SearchMovies(t *testing.T) {
	fake := newFakeTMDB(t, map[string]string{"/search/movie": popularPage})
	svc := fake.service("k")

	_, err := svc.SearchMovies(context.Background(), "fight club", 2)
	require.NoError(t, err)

	q := fake.last.Load().URL.Query()
	assert.Equal(t, "fight club", q.Get("query"))
	assert.Equal(t, "false", q.Get("include_adult"))
	assert.Equal(t, "2", q.Get("page"))
}

func TestTMDBService_GetMovie(t *testing.T) {
	fake := newFakeTMDB(t, map[string]string{
		"/movie/550": `{"id": 550, "title": "Fight Club", "release_date": "1999-10-15",
			"genres": [{"id": 18, "name": "Drama"}, {"id": 53, "name": "Thriller"}],
			"tagline": "Mischief. Mayhem. Soap.", "runtime": 139, "budget": 63000000, "revenue": 0}`,
	})
	svc := fake.service("k")

	movie, err := svc.GetMovie(context.Background(), 550)
	require.NoError(t, err)

	assert.Equal(t, []int{18, 53}, movie.GenreIDs)
	assert.Equal(t, "Drama, Thriller", movie.GenreNames())
	require.NotNil(t, movie.Tagline)
	assert.Equal(t, "Mischief. Mayhem. Soap.", *movie.Tagline)
	require.NotNil(t, movie.Runtime)
	assert.Equal(t, 139, *movie.Runtime)
	require.NotNil(t, movie.Budget)
	assert.Equal(t, int64(63000000), *movie.Budget)
	assert.Nil(t, movie.Revenue)
}

func TestTMDBService_NotFound(t *testing.T) {
	fake := newFakeTMDB(t, nil)
	svc := fake.service("k")

	_, err := svc.GetMovie(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetPerson(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTMDBService_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewTMDBService(TMDBConfig{APIKey: "k", BaseURL: srv.URL, RetryDelay: time.Millisecond, Logger: discardLogger()})
	_, err := svc.PopularMovies(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "status 500")
}

func TestTMDBService_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			http.Error(w, "slow down", http.StatusTooManyRequests)
		case 2:
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		default:
			io.WriteString(w, popularPage)
		}
	}))
	defer srv.Close()

	svc := NewTMDBService(TMDBConfig{APIKey: "k", BaseURL: srv.URL, RetryDelay: time.Millisecond, Logger: discardLogger()})
	page, err := svc.PopularMovies(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEmpty(t, page.Results)
	assert.Equal(t, int64(3), calls.Load())
}

func TestTMDBService_DoesNotRetryClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"unauthorized", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int64
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				http.Error(w, "{}", tt.status)
			}))
			defer srv.Close()

			svc := NewTMDBService(TMDBConfig{APIKey: "k", BaseURL: srv.URL, RetryDelay: time.Millisecond, Logger: discardLogger()})
			_, err := svc.GetMovie(context.Background(), 550)
			require.Error(t, err)
			assert.Equal(t, int64(1), calls.Load())
		})
	}
}

func TestTMDBService_CreditsAndPerson(t *testing.T) {
	fake := newFakeTMDB(t, map[string]string{
		"/movie/550/credits": `{
			"cast": [{"id": 819, "name": "Edward Norton", "character": "The Narrator", "profile_path": ""}],
			"crew": [{"id": 1, "name": "Someone", "job": "Producer"}, {"id": 7467, "name": "David Fincher", "job": "Director"}]
		}`,
		"/person/819": `{"id": 819, "name": "Edward Norton", "biography": "", "gender": 2,
			"birthday": "1969-08-18", "deathday": null, "place_of_birth": "Boston", "known_for_department": "Acting"}`,
		"/person/819/movie_credits": `{"cast": [{"id": 550, "title": "Fight Club", "genre_ids": [18]}]}`,
	})
	svc := fake.service("k")
	ctx := context.Background()

	credits, err := svc.GetCredits(ctx, 550)
	require.NoError(t, err)
	require.Len(t, credits.Cast, 1)
	assert.Nil(t, credits.Cast[0].ProfilePath)
	director := credits.Director()
	require.NotNil(t, director)
	assert.Equal(t, "David Fincher", director.Name)

	person, err := svc.GetPerson(ctx, 819)
	require.NoError(t, err)
	assert.Nil(t, person.Biography)
	assert.Nil(t, person.Deathday)
	assert.Equal(t, "Male", person.GenderLabel())

	movies, err := svc.GetPersonMovies(ctx, 819)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "Fight Club", movies[0].Title)
}
