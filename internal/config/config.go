package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Favourites persistence backends
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	TMDB     TMDBConfig
	Listing  ListingConfig
	Visitor  VisitorConfig
	Log      LogConfig
}

type ServerConfig struct {
	Env       string
	Port      string
	Host      string
	RateLimit int
}

type DatabaseConfig struct {
	URL string
	// FavouritesBackend selects where favourites lists are persisted
	FavouritesBackend string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	TLS      bool
}

type TMDBConfig struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Timeout      time.Duration
	Retries      int
	RetryDelay   time.Duration
	GenreTTL     time.Duration
}

type ListingConfig struct {
	MinDelay  time.Duration
	CacheSize int
	ViewTTL   time.Duration
}

type VisitorConfig struct {
	SessionTTL time.Duration
	CookieName string
}

type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load reads environment variables and returns a Config struct
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Env:       getEnv("APP_ENV", "local"),
			Port:      getEnv("PORT", "4000"),
			Host:      getEnv("HOST", "http://localhost:4000"),
			RateLimit: getEnvInt("RATE_LIMIT", 0),
		},
		Database: DatabaseConfig{
			URL:               getEnv("DATABASE_URL", ""),
			FavouritesBackend: strings.ToLower(getEnv("FAVOURITES_BACKEND", BackendRedis)),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			TLS:      getEnv("REDIS_TLS", "false") == "true",
		},
		TMDB: TMDBConfig{
			APIKey:       getEnv("TMDB_KEY", ""),
			BaseURL:      strings.TrimRight(getEnv("TMDB_URL", "https://api.themoviedb.org/3"), "/"),
			ImageBaseURL: getEnv("TMDB_IMAGE_URL", "https://image.tmdb.org/t/p/w500"),
			Timeout:      getEnvDuration("TMDB_TIMEOUT", 10*time.Second),
			Retries:      getEnvInt("TMDB_RETRIES", 3),
			RetryDelay:   getEnvDuration("TMDB_RETRY_DELAY", 300*time.Millisecond),
			GenreTTL:     getEnvDuration("GENRE_CACHE_TTL", 24*time.Hour),
		},
		Listing: ListingConfig{
			MinDelay:  getEnvDuration("LISTING_MIN_DELAY", 500*time.Millisecond),
			CacheSize: getEnvInt("VIEW_CACHE_SIZE", 10000),
			ViewTTL:   getEnvDuration("VIEW_TTL", 2*time.Hour),
		},
		Visitor: VisitorConfig{
			SessionTTL: getEnvDuration("VISITOR_TTL", 30*24*time.Hour),
			CookieName: getEnv("VISITOR_COOKIE", "cinedex_session"),
		},
		Log: LogConfig{
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		},
	}

	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = 1000
		if cfg.IsProduction() {
			cfg.Server.RateLimit = 100
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and cross-field rules
func (c *Config) Validate() error {
	if c.TMDB.APIKey == "" {
		return fmt.Errorf("TMDB_KEY is required")
	}

	switch c.Database.FavouritesBackend {
	case BackendRedis, BackendMemory:
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when FAVOURITES_BACKEND is %s", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown FAVOURITES_BACKEND %q", c.Database.FavouritesBackend)
	}

	if c.Server.RateLimit < 1 {
		return fmt.Errorf("RATE_LIMIT must be at least 1, got %d", c.Server.RateLimit)
	}

	if c.Listing.CacheSize < 1 {
		return fmt.Errorf("VIEW_CACHE_SIZE must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsDevelopment returns true if running in development/local mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "local" || c.Server.Env == "development"
}

// RedisAddr returns the Redis address in host:port format
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// UsesPostgres reports whether a database connection is needed
func (c *Config) UsesPostgres() bool {
	return c.Database.FavouritesBackend == BackendPostgres
}
