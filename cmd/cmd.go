package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookflow-backend/internal/config"
	"bookflow-backend/internal/handlers"
	"bookflow-backend/internal/memstore"
	"bookflow-backend/internal/middleware"
	"bookflow-backend/internal/repository"
	"bookflow-backend/internal/services"
	"bookflow-backend/internal/session"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Initialize record store
	var (
		userStore     services.UserStore
		bookStore     services.BookStore
		exchangeStore services.ExchangeStore
		reviewStore   services.ReviewStore
	)

	switch cfg.Storage.Driver {
	case "postgres":
		db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := db.Ping(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Failed to ping database")
		}
		log.Info().Msg("Database connection established")

		userStore = repository.NewUserRepository(db)
		bookStore = repository.NewBookRepository(db)
		exchangeStore = repository.NewExchangeRepository(db)
		reviewStore = repository.NewReviewRepository(db)
	case "memory":
		store := memstore.New()
		userStore = store
		bookStore = store
		exchangeStore = store
		reviewStore = store
		log.Warn().Msg("Using in-memory record store; data will not survive restarts")
	default:
		log.Fatal().Str("driver", cfg.Storage.Driver).Msg("Unknown storage driver")
	}

	// Initialize session store
	var sessions session.Store
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer client.Close()
		sessions = session.NewRedisStore(client, cfg.Session.TTL())
		log.Info().Msg("Redis session store enabled")
	} else {
		sessions = session.NewMemoryStore(cfg.Session.TTL())
	}

	// Initialize services
	userService := services.NewUserService(userStore, bookStore, sessions)
	bookService := services.NewBookService(bookStore, reviewStore)
	exchangeService := services.NewExchangeService(exchangeStore, bookStore)
	reviewService := services.NewReviewService(reviewStore)
	hub := services.NewHub()

	var coverService *services.CoverService
	if cfg.AWS.S3Bucket != "" {
		coverService, err = services.NewCoverService(
			cfg.AWS.Region,
			cfg.AWS.S3Bucket,
			cfg.AWS.AccessKey,
			cfg.AWS.SecretKey,
			cfg.AWS.Endpoint,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create cover service")
		}
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, cfg.Session.TTL(), cfg.Session.SecureCookie)
	bookHandler := handlers.NewBookHandler(bookService, coverService)
	exchangeHandler := handlers.NewExchangeHandler(exchangeService, hub)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	wishlistHandler := handlers.NewWishlistHandler(userService)
	wsHandler := handlers.NewWebSocketHandler(hub, sessions)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/books", bookHandler.List)
		r.Get("/books/{id}", bookHandler.Get)
		r.Get("/reviews", reviewHandler.List)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessions))
			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/logout", authHandler.Logout)
			r.Post("/books", bookHandler.Create)
			r.Put("/books/{id}", bookHandler.Update)
			r.Delete("/books/{id}", bookHandler.Delete)
			r.Post("/books/cover-upload", bookHandler.CoverUpload)
			r.Get("/exchanges", exchangeHandler.List)
			r.Post("/exchanges", exchangeHandler.Propose)
			r.Put("/exchanges/{id}", exchangeHandler.Transition)
			r.Delete("/exchanges/{id}", exchangeHandler.Remove)
			r.Post("/reviews", reviewHandler.Create)
			r.Get("/wishlist", wishlistHandler.List)
			r.Post("/wishlist", wishlistHandler.Update)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("storage", cfg.Storage.Driver).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
