package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("TMDB_KEY", "abc123")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "4000", cfg.Server.Port)
		assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
		assert.Equal(t, 3, cfg.TMDB.Retries)
		assert.Equal(t, BackendRedis, cfg.Database.FavouritesBackend)
		assert.Equal(t, 500*time.Millisecond, cfg.Listing.MinDelay)
		assert.Equal(t, 1000, cfg.Server.RateLimit)
		assert.Equal(t, "localhost:6379", cfg.RedisAddr())
		assert.True(t, cfg.IsDevelopment())
		assert.False(t, cfg.UsesPostgres())
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("TMDB_KEY", "abc123")
		t.Setenv("APP_ENV", "production")
		t.Setenv("TMDB_URL", "http://tmdb.local/3/")
		t.Setenv("LISTING_MIN_DELAY", "0s")
		t.Setenv("FAVOURITES_BACKEND", "Postgres")
		t.Setenv("DATABASE_URL", "postgres://localhost/cinedex")
		t.Setenv("VIEW_TTL", "bogus")

		cfg, err := Load()
		require.NoError(t, err)

		assert.True(t, cfg.IsProduction())
		assert.Equal(t, 100, cfg.Server.RateLimit)
		assert.Equal(t, "http://tmdb.local/3", cfg.TMDB.BaseURL)
		assert.Zero(t, cfg.Listing.MinDelay)
		assert.True(t, cfg.UsesPostgres())
		assert.Equal(t, 2*time.Hour, cfg.Listing.ViewTTL, "unparseable durations fall back to the default")
	})

	t.Run("Missing TMDB key", func(t *testing.T) {
		t.Setenv("TMDB_KEY", "")
		_, err := Load()
		assert.ErrorContains(t, err, "TMDB_KEY")
	})

	t.Run("Postgres without URL", func(t *testing.T) {
		t.Setenv("TMDB_KEY", "abc123")
		t.Setenv("FAVOURITES_BACKEND", "postgres")
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		assert.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("Negative rate limit", func(t *testing.T) {
		t.Setenv("TMDB_KEY", "abc123")
		t.Setenv("RATE_LIMIT", "-5")
		_, err := Load()
		assert.ErrorContains(t, err, "RATE_LIMIT")
	})

	t.Run("Unknown backend", func(t *testing.T) {
		t.Setenv("TMDB_KEY", "abc123")
		t.Setenv("FAVOURITES_BACKEND", "cassandra")
		_, err := Load()
		assert.ErrorContains(t, err, "cassandra")
	})
}
