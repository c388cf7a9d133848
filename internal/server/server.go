// Package server is the composition root: it opens the store, builds the
// services, mounts the REST and GraphQL routes and runs the HTTP listener.
//
// DEPENDENCY FLOW:
//
//	config.Config → database.DB → sqlstore.Store → service.{Note,Auth}Service
//	                                             ↘ handler.* and graphql.Handler
//
// Both transports hold the same service values, so a given request gets the
// same session check and the same error body on either API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/notes-backend/internal/auth"
	"github.com/sakif/notes-backend/internal/config"
	"github.com/sakif/notes-backend/internal/database"
	"github.com/sakif/notes-backend/internal/graphql"
	"github.com/sakif/notes-backend/internal/handler"
	"github.com/sakif/notes-backend/internal/middleware"
	"github.com/sakif/notes-backend/internal/repository/sqlstore"
	"github.com/sakif/notes-backend/internal/service"
)

// shutdownTimeout bounds how long in-flight requests may run after a signal.
const shutdownTimeout = 30 * time.Second

// Server owns the connection pool; it is closed when the server stops.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *database.DB
}

// New opens and migrates the database and wires every route.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	dialect, err := database.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, dialect, cfg.DBDSN, database.Options{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes configures middleware and handlers.
//
// ROUTES:
// POST   /sign-up                 → register, returns accessToken
// POST   /sign-in                 → login, returns accessToken
// POST   /create-note             → create note
// GET    /find-notes              → page of notes (page/limit headers)
// GET    /find-note/{id}          → one note
// PATCH  /update-finished-note    → set finished flag
// DELETE /delete-note             → delete finished note
// POST   /graphql                 → GraphQL endpoint
// GET    /health                  → store liveness
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return err
	}
	passwords, err := auth.NewPasswordService(s.config.BcryptCost)
	if err != nil {
		return err
	}

	store := sqlstore.New(s.db)
	noteService := service.NewNoteService(tokens, store, s.logger)
	authService := service.NewAuthService(store, tokens, passwords, s.logger)

	schema, err := graphql.NewSchema(noteService, authService)
	if err != nil {
		return fmt.Errorf("building GraphQL schema: %w", err)
	}

	authHandler := handler.NewAuthHandler(authService, s.logger)
	noteHandler := handler.NewNoteHandler(noteService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)
	graphqlHandler := graphql.NewHandler(schema, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/health", healthHandler.HandleHealth)
	s.router.Post("/sign-up", authHandler.HandleSignUp)
	s.router.Post("/sign-in", authHandler.HandleSignIn)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.CaptureCredential)

		r.Post("/create-note", noteHandler.HandleCreate)
		r.Get("/find-notes", noteHandler.HandleFind)
		r.Get("/find-note/{id}", noteHandler.HandleGetByID)
		r.Patch("/update-finished-note", noteHandler.HandleUpdateFinished)
		r.Delete("/delete-note", noteHandler.HandleDelete)
		r.Method(http.MethodPost, "/graphql", graphqlHandler)
	})

	return nil
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close drains and closes the connection pool.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start listens until SIGINT/SIGTERM, then shuts down gracefully: stop
// accepting connections, wait for in-flight requests, close the pool.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", s.config.Addr),
			slog.String("dialect", string(s.db.Dialect())),
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

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
