package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/liamwears/cinedex/internal/database"
)

// ErrMalformedFavourites is returned when the persisted list cannot be parsed.
// Clear recovers from it.
var ErrMalformedFavourites = errors.New("malformed favourites data")

// FavouritesStore persists each visitor's favourite movie IDs as a JSON list.
// Every operation re-reads the persisted list; concurrent writers are not
// coordinated and the last write wins.
type FavouritesStore struct {
	kv database.KV
}

// NewFavouritesStore creates a favourites store over a KV backend
func NewFavouritesStore(kv database.KV) *FavouritesStore {
	return &FavouritesStore{kv: kv}
}

func favouritesKey(visitorID uuid.UUID) string {
	return "favourites:" + visitorID.String()
}

func (s *FavouritesStore) read(ctx context.Context, visitorID uuid.UUID) ([]string, error) {
	raw, ok, err := s.kv.Get(ctx, favouritesKey(visitorID))
	if err != nil {
		return nil, fmt.Errorf("failed to read favourites: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFavourites, err)
	}
	return ids, nil
}

func (s *FavouritesStore) write(ctx context.Context, visitorID uuid.UUID, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode favourites: %w", err)
	}
	if err := s.kv.Set(ctx, favouritesKey(visitorID), string(b)); err != nil {
		return fmt.Errorf("failed to write favourites: %w", err)
	}
	return nil
}

// Add appends a movie ID unless it is already present
func (s *FavouritesStore) Add(ctx context.Context, visitorID uuid.UUID, movieID string) error {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return fmt.Errorf("movie ID is required")
	}

	ids, err := s.read(ctx, visitorID)
	if err != nil {
		return err
	}
	if slices.Contains(ids, movieID) {
		return nil
	}
	return s.write(ctx, visitorID, append(ids, movieID))
}

// Remove deletes a movie ID if present
func (s *FavouritesStore) Remove(ctx context.Context, visitorID uuid.UUID, movieID string) error {
	ids, err := s.read(ctx, visitorID)
	if err != nil {
		return err
	}
	if !slices.Contains(ids, movieID) {
		return nil
	}
	return s.write(ctx, visitorID, slices.DeleteFunc(ids, func(id string) bool {
		return id == movieID
	}))
}

// Contains reports whether a movie ID is in the persisted list
func (s *FavouritesStore) Contains(ctx context.Context, visitorID uuid.UUID, movieID string) (bool, error) {
	ids, err := s.read(ctx, visitorID)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, movieID), nil
}

// List returns up to limit IDs starting at offset, in persisted order, along
// with the total number of favourites.
func (s *FavouritesStore) List(ctx context.Context, visitorID uuid.UUID, offset, limit int) ([]string, int, error) {
	ids, err := s.read(ctx, visitorID)
	if err != nil {
		return nil, 0, err
	}

	total := len(ids)
	offset = max(offset, 0)
	if offset >= total || limit <= 0 {
		return []string{}, total, nil
	}
	end := min(offset+limit, total)
	return ids[offset:end], total, nil
}

// Count returns how many favourites a visitor has
func (s *FavouritesStore) Count(ctx context.Context, visitorID uuid.UUID) (int, error) {
	ids, err := s.read(ctx, visitorID)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Clear forgets every favourite of a visitor
func (s *FavouritesStore) Clear(ctx context.Context, visitorID uuid.UUID) error {
	if err := s.kv.Delete(ctx, favouritesKey(visitorID)); err != nil {
		return fmt.Errorf("failed to clear favourites: %w", err)
	}
	return nil
}
