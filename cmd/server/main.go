package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/liamwears/cinedex/internal/config"
	"github.com/liamwears/cinedex/internal/database"
	"github.com/liamwears/cinedex/internal/handlers"
	"github.com/liamwears/cinedex/internal/listing"
	"github.com/liamwears/cinedex/internal/middleware"
	"github.com/liamwears/cinedex/internal/services"
)

func main() {
	// Check for migrate command
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrations(os.Args[2:])
		return
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg)
	logger.Printf("Starting Cinedex server in %s mode", cfg.Server.Env)

	// Redis carries visitor sessions, the rate limiter and the genre cache
	redisClient, err := database.NewRedisClient(database.RedisConfig{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       0,
		TLS:      cfg.Redis.TLS,
	})
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Postgres is only needed when it stores favourites
	var db *database.DB
	if cfg.UsesPostgres() {
		db, err = database.New(context.Background(), database.Config{URL: cfg.Database.URL}, logger)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Migrator().Up(context.Background()); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
	}

	var kv database.KV
	switch cfg.Database.FavouritesBackend {
	case config.BackendPostgres:
		kv = db.KV()
	case config.BackendMemory:
		kv = database.NewMemoryKV()
	default:
		kv = database.NewRedisKV(redisClient, "cinedex:")
	}
	logger.Printf("Favourites stored in %s", cfg.Database.FavouritesBackend)

	// Initialize services
	tmdbService := services.NewTMDBService(services.TMDBConfig{
		APIKey:       cfg.TMDB.APIKey,
		BaseURL:      cfg.TMDB.BaseURL,
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
		Timeout:      cfg.TMDB.Timeout,
		Attempts:     uint(max(cfg.TMDB.Retries, 1)),
		RetryDelay:   cfg.TMDB.RetryDelay,
		Logger:       logger,
	})
	favouritesStore := services.NewFavouritesStore(kv)
	genreCatalog := services.NewGenreCatalog(tmdbService, redisClient.Client, cfg.TMDB.GenreTTL, logger)
	viewRegistry := services.NewViewRegistry(tmdbService, favouritesStore, services.ViewRegistryConfig{
		Size:     cfg.Listing.CacheSize,
		TTL:      cfg.Listing.ViewTTL,
		MinDelay: cfg.Listing.MinDelay,
	}, logger)
	detailService := services.NewDetailService(tmdbService, favouritesStore)

	// Initialize middleware
	visitorStore := database.NewVisitorStore(redisClient, cfg.Visitor.SessionTTL)
	visitors := middleware.NewVisitorMiddleware(visitorStore, cfg.Visitor.CookieName, cfg.IsProduction(), logger)
	rateLimiter := middleware.NewRateLimiter(redisClient.Client, cfg.Server.RateLimit, time.Minute, cfg.IsProduction(), logger)

	// Initialize renderer
	renderer, err := handlers.NewRenderer(tmdbService, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize renderer: %v", err)
	}

	// Initialize handlers
	tmdbHandler := handlers.NewTMDBHandler(detailService, genreCatalog, viewRegistry, logger)
	viewHandler := handlers.NewViewHandler(viewRegistry, genreCatalog, logger)
	favouritesHandler := handlers.NewFavouritesHandler(favouritesStore, logger)
	pageHandler := handlers.NewPageHandler(detailService, viewRegistry, genreCatalog, favouritesStore, renderer, logger)

	checks := map[string]handlers.HealthChecker{"redis": redisClient}
	if db != nil {
		checks["database"] = db
	}
	healthHandler := handlers.NewHealthHandler(checks)

	// Every visitor-facing route is rate limited by IP before a session is
	// looked up or created
	visitor := func(h http.HandlerFunc) http.Handler {
		return rateLimiter.Limit(visitors.Identify(h))
	}

	mux := http.NewServeMux()

	// Page routes
	mux.Handle("GET /{$}", visitor(pageHandler.Home))
	mux.Handle("GET /popular", visitor(pageHandler.Listing(listing.PopularVariant.Name)))
	mux.Handle("GET /toprated", visitor(pageHandler.Listing(listing.TopRatedVariant.Name)))
	mux.Handle("GET /search", visitor(pageHandler.Listing(listing.SearchVariant.Name)))
	mux.Handle("GET /favourites", visitor(pageHandler.Listing(listing.FavouritesVariant.Name)))
	mux.Handle("POST /favourites/clear", visitor(pageHandler.ClearFavourites))
	mux.Handle("GET /movie/{id}", visitor(pageHandler.Movie))
	mux.Handle("POST /movie/{id}/favourite", visitor(pageHandler.ToggleFavourite))
	mux.Handle("GET /actor/{id}", visitor(pageHandler.Person))

	// JSON API routes
	mux.Handle("GET /api/home", visitor(tmdbHandler.Home))
	mux.Handle("GET /api/genres", visitor(tmdbHandler.Genres))
	mux.Handle("GET /api/movies/{id}", visitor(tmdbHandler.GetMovie))
	mux.Handle("GET /api/people/{id}", visitor(tmdbHandler.GetPerson))

	mux.Handle("GET /api/views/{view}", visitor(viewHandler.Get))
	mux.Handle("POST /api/views/{view}/load", visitor(viewHandler.Load))
	mux.Handle("POST /api/views/{view}/page", visitor(viewHandler.ChangePage))
	mux.Handle("POST /api/views/{view}/genres/{id}", visitor(viewHandler.ToggleGenre))
	mux.Handle("POST /api/views/{view}/reset", visitor(viewHandler.Reset))
	mux.Handle("POST /api/views/{view}/query", visitor(viewHandler.Search))
	mux.Handle("PUT /api/views/{view}/sort", visitor(viewHandler.SetSort))

	mux.Handle("GET /api/favourites", visitor(favouritesHandler.List))
	mux.Handle("PUT /api/favourites/{id}", visitor(favouritesHandler.Add))
	mux.Handle("DELETE /api/favourites/{id}", visitor(favouritesHandler.Remove))
	mux.Handle("DELETE /api/favourites", visitor(favouritesHandler.Clear))

	// Static assets and health check skip the visitor session
	mux.Handle("GET /static/", handlers.StaticHandler())
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("/", pageHandler.NotFound)

	// Wrap with logging middleware
	handler := middleware.Logger(logger)(mux)

	// Create HTTP server
	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Printf("Server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("Server forced to shutdown: %v", err)
	}

	logger.Println("Server exited")
}

// newLogger writes to stdout, and to a rotating file when LOG_FILE is set
func newLogger(cfg *config.Config) *log.Logger {
	var out io.Writer = os.Stdout
	if cfg.Log.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   true,
		})
	}

	// Package-level log calls (connection messages) go to the same place
	log.SetOutput(out)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logger := log.New(out, "[cinedex] ", log.LstdFlags|log.Lshortfile)
	if cfg.Log.File != "" {
		logger.Printf("Logging to file: %s", cfg.Log.File)
	}
	return logger
}

// runMigrations applies (or with "down", rolls back) the SQL migrations
func runMigrations(args []string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatalf("DATABASE_URL is required to run migrations")
	}

	ctx := context.Background()
	db, err := database.New(ctx, database.Config{URL: cfg.Database.URL}, newLogger(cfg))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrator := db.Migrator()

	if len(args) > 0 && args[0] == "down" {
		if err := migrator.Down(ctx); err != nil {
			log.Fatalf("Failed to roll back migrations: %v", err)
		}
		log.Println("Migrations rolled back successfully")
		return
	}

	if err := migrator.Up(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")
}
