// Package server is the composition root: it opens the store, builds the
// service and handler layers on top of it, mounts the routes and runs the
// HTTP server until a shutdown signal arrives.
//
// DEPENDENCY FLOW:
//
//	config → store (postgres or sqlite) → services → handlers → chi router
//
// Only this package knows which backend is in use; everything below it talks
// to repository interfaces.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/glencoden/cards-api/internal/config"
	"github.com/glencoden/cards-api/internal/handler"
	"github.com/glencoden/cards-api/internal/middleware"
	"github.com/glencoden/cards-api/internal/repository"
	"github.com/glencoden/cards-api/internal/repository/postgres"
	sqliteRepo "github.com/glencoden/cards-api/internal/repository/sqlite"
	"github.com/glencoden/cards-api/internal/service"
)

// Server owns the router and the store. The store is closed when Start
// returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store
}

// New opens the store named by cfg.DatabaseURL (running migrations) and
// wires the routes.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := OpenStore(ctx, cfg.DatabaseURL, cfg.Pool(), logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return NewWithStore(cfg, store, logger), nil
}

// NewWithStore wires the routes on an already open store.
func NewWithStore(cfg *config.Config, store repository.Store, logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	s.setupRoutes()
	return s
}

// OpenStore picks the backend from the DSN: "sqlite:<path>" or
// "sqlite://<path>" opens the embedded store, anything else is a Postgres
// connection string.
func OpenStore(ctx context.Context, dsn string, pool repository.PoolConfig, logger *slog.Logger) (repository.Store, error) {
	if path, ok := sqlitePath(dsn); ok {
		db, err := sqliteRepo.New(ctx, path, pool, logger)
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := postgres.New(ctx, dsn, pool, logger)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func sqlitePath(dsn string) (string, bool) {
	if path, ok := strings.CutPrefix(dsn, "sqlite://"); ok {
		return path, true
	}
	return strings.CutPrefix(dsn, "sqlite:")
}

// setupRoutes mounts middleware and routes.
//
// ROUTES:
// GET  /health       → store ping
// GET  /users        → list users
// GET  /users/{id}   → one user
// POST /users        → create user
// (same three for /decks and /cards)
//
// MIDDLEWARE ORDER:
// 1. RequestID: tags each request, read by the logger
// 2. RealIP: client address from proxy headers
// 3. Logger: one line per request, sees the final status
// 4. Recoverer: turns panics into 500s inside the logger's view
// 5. CORS: only when origins are configured
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	if origins := s.config.AllowedOrigins(); len(origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	s.router.NotFound(handler.NotFound)
	s.router.MethodNotAllowed(handler.MethodNotAllowed)

	users := handler.NewUserHandler(service.NewUserService(s.store.Users(), s.logger), s.logger)
	decks := handler.NewDeckHandler(service.NewDeckService(s.store.Decks(), s.logger), s.logger)
	cards := handler.NewCardHandler(service.NewCardService(s.store.Cards(), s.logger), s.logger)
	health := handler.NewHealthHandler(s.store, s.logger)

	s.router.Get("/health", health.HandleHealth)

	s.router.Route("/users", func(r chi.Router) {
		r.Get("/", users.HandleList)
		r.Post("/", users.HandleCreate)
		r.Get("/{id}", users.HandleGet)
	})
	s.router.Route("/decks", func(r chi.Router) {
		r.Get("/", decks.HandleList)
		r.Post("/", decks.HandleCreate)
		r.Get("/{id}", decks.HandleGet)
	})
	s.router.Route("/cards", func(r chi.Router) {
		r.Get("/", cards.HandleList)
		r.Post("/", cards.HandleCreate)
		r.Get("/{id}", cards.HandleGet)
	})
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store.
func (s *Server) Close() error {
	return s.store.Close()
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to the shutdown timeout and closes the store.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// statements may run for up to the statement timeout, plus encoding
		WriteTimeout: s.config.DBAcquireTimeout + s.config.DBStatementTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.RedactedDatabaseURL()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
