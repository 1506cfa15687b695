package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/liamwears/cinedex/internal/models"
)

const genreCacheKey = "cache:genres:movie"

// GenreCatalog serves the TMDB genre list. It is fetched once and then kept
// in memory, and in Redis when a client is given, until the TTL runs out.
type GenreCatalog struct {
	tmdb   *TMDBService
	redis  *redis.Client
	ttl    time.Duration
	logger *log.Logger
	group  singleflight.Group

	mu       sync.RWMutex
	genres   []models.Genre
	loadedAt time.Time
	now      func() time.Time
}

// NewGenreCatalog creates a catalog. redisClient may be nil.
func NewGenreCatalog(tmdb *TMDBService, redisClient *redis.Client, ttl time.Duration, logger *log.Logger) *GenreCatalog {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &GenreCatalog{
		tmdb:   tmdb,
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Genres returns the catalog, loading it on first use
func (c *GenreCatalog) Genres(ctx context.Context) ([]models.Genre, error) {
	c.mu.RLock()
	if c.genres != nil && c.now().Sub(c.loadedAt) < c.ttl {
		genres := c.genres
		c.mu.RUnlock()
		return genres, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("genres", func() (any, error) {
		return c.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Genre), nil
}

func (c *GenreCatalog) load(ctx context.Context) ([]models.Genre, error) {
	if genres, ok := c.fromRedis(ctx); ok {
		c.store(genres)
		return genres, nil
	}

	genres, err := c.tmdb.GetGenres(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load genres: %w", err)
	}
	if genres == nil {
		genres = []models.Genre{}
	}
	c.store(genres)

	if c.redis != nil {
		if b, err := json.Marshal(genres); err == nil {
			if err := c.redis.Set(ctx, genreCacheKey, b, c.ttl).Err(); err != nil {
				c.logger.Printf("Failed to cache genres in Redis: %v", err)
			}
		}
	}

	c.logger.Printf("Loaded %d genres from TMDB", len(genres))
	return genres, nil
}

func (c *GenreCatalog) fromRedis(ctx context.Context) ([]models.Genre, bool) {
	if c.redis == nil {
		return nil, false
	}

	b, err := c.redis.Get(ctx, genreCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Printf("Failed to read cached genres: %v", err)
		}
		return nil, false
	}

	var genres []models.Genre
	if err := json.Unmarshal(b, &genres); err != nil {
		c.logger.Printf("Discarding malformed cached genres: %v", err)
		return nil, false
	}
	return genres, true
}

func (c *GenreCatalog) store(genres []models.Genre) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.genres = genres
	c.loadedAt = c.now()
}
