package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/liamwears/cinedex/internal/listing"
	"github.com/liamwears/cinedex/internal/models"
)

// FavouritesPageSize is how many favourites one listing page shows
const FavouritesPageSize = 8

// ErrUnknownView is returned for view names other than the four listings
var ErrUnknownView = errors.New("unknown view")

// Views holds the four listing states of one visitor
type Views struct {
	Popular    *listing.State
	TopRated   *listing.State
	Search     *listing.State
	Favourites *listing.State
}

// Get returns a listing by its variant name
func (v *Views) Get(name string) (*listing.State, error) {
	switch name {
	case listing.PopularVariant.Name:
		return v.Popular, nil
	case listing.TopRatedVariant.Name:
		return v.TopRated, nil
	case listing.SearchVariant.Name:
		return v.Search, nil
	case listing.FavouritesVariant.Name:
		return v.Favourites, nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownView)
	}
}

// ResetAll resets every listing, as visiting the home page does
func (v *Views) ResetAll() {
	v.Popular.Reset()
	v.TopRated.Reset()
	v.Search.Reset()
	v.Favourites.Reset()
}

// ViewRegistryConfig tunes the registry
type ViewRegistryConfig struct {
	Size     int
	TTL      time.Duration
	MinDelay time.Duration
}

// ViewRegistry keeps each visitor's listing states in memory. Idle visitors
// are evicted after the TTL and start over with fresh views.
type ViewRegistry struct {
	tmdb       *TMDBService
	favourites *FavouritesStore
	logger     *log.Logger
	minDelay   time.Duration
	cache      *expirable.LRU[uuid.UUID, *Views]
}

// NewViewRegistry creates a registry
func NewViewRegistry(tmdb *TMDBService, favourites *FavouritesStore, cfg ViewRegistryConfig, logger *log.Logger) *ViewRegistry {
	if cfg.Size <= 0 {
		cfg.Size = 10000
	}
	return &ViewRegistry{
		tmdb:       tmdb,
		favourites: favourites,
		logger:     logger,
		minDelay:   cfg.MinDelay,
		cache:      expirable.NewLRU[uuid.UUID, *Views](cfg.Size, nil, cfg.TTL),
	}
}

// For returns the visitor's views, creating them on first use
func (r *ViewRegistry) For(visitorID uuid.UUID) *Views {
	if views, ok := r.cache.Get(visitorID); ok {
		// Re-adding restarts the expiry, so active visitors keep their state
		r.cache.Add(visitorID, views)
		return views
	}

	opts := listing.Options{MinDelay: r.minDelay}
	views := &Views{
		Popular:    listing.NewState(listing.PopularVariant, listing.FetcherFunc(r.fetchPopular), opts),
		TopRated:   listing.NewState(listing.TopRatedVariant, listing.FetcherFunc(r.fetchTopRated), opts),
		Search:     listing.NewState(listing.SearchVariant, listing.FetcherFunc(r.fetchSearch), opts),
		Favourites: listing.NewState(listing.FavouritesVariant, r.FavouritesFetcher(visitorID), opts),
	}
	// Two concurrent first requests may both build views; the later Add wins.
	r.cache.Add(visitorID, views)
	return views
}

// Len returns the number of visitors with live views
func (r *ViewRegistry) Len() int {
	return r.cache.Len()
}

func pageResult(page *models.MoviePage) *listing.Result {
	return &listing.Result{Items: page.Results, TotalPages: page.TotalPages}
}

func (r *ViewRegistry) fetchPopular(ctx context.Context, q listing.Query) (*listing.Result, error) {
	page, err := r.tmdb.PopularMovies(ctx, q.Page)
	if err != nil {
		return nil, err
	}
	// TMDB reports more pages than it will serve
	return &listing.Result{Items: page.Results, TotalPages: listing.MaxPages}, nil
}

func (r *ViewRegistry) fetchTopRated(ctx context.Context, q listing.Query) (*listing.Result, error) {
	page, err := r.tmdb.TopRatedMovies(ctx, q.Page)
	if err != nil {
		return nil, err
	}
	return pageResult(page), nil
}

func (r *ViewRegistry) fetchSearch(ctx context.Context, q listing.Query) (*listing.Result, error) {
	page, err := r.tmdb.SearchMovies(ctx, q.Term, q.Page)
	if err != nil {
		return nil, err
	}
	return pageResult(page), nil
}

// FavouritesFetcher loads one page of a visitor's favourites, fetching the
// movie detail of each ID in turn. IDs TMDB no longer knows are skipped.
func (r *ViewRegistry) FavouritesFetcher(visitorID uuid.UUID) listing.Fetcher {
	return listing.FetcherFunc(func(ctx context.Context, q listing.Query) (*listing.Result, error) {
		offset := (max(q.Page, 1) - 1) * FavouritesPageSize
		ids, total, err := r.favourites.List(ctx, visitorID, offset, FavouritesPageSize)
		if err != nil {
			return nil, err
		}

		items := make([]models.Movie, 0, len(ids))
		for _, id := range ids {
			movieID, err := strconv.Atoi(id)
			if err != nil {
				r.logger.Printf("Skipping favourite with non-numeric ID %q", id)
				continue
			}
			detail, err := r.tmdb.GetMovie(ctx, movieID)
			if errors.Is(err, ErrNotFound) {
				r.logger.Printf("Skipping favourite %d: not found on TMDB", movieID)
				continue
			}
			if err != nil {
				return nil, err
			}
			items = append(items, detail.Movie)
		}

		return &listing.Result{
			Items:      items,
			TotalPages: (total + FavouritesPageSize - 1) / FavouritesPageSize,
		}, nil
	})
}
