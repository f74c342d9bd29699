// Package server runs a local stand-in for the Snippets Guru API. It speaks
// the same ld+json wire format as the hosted service so the client can be
// developed and tested without network access.
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

	"github.com/sakif/snippets-guru/internal/auth"
	"github.com/sakif/snippets-guru/internal/handler"
	"github.com/sakif/snippets-guru/internal/middleware"
	"github.com/sakif/snippets-guru/internal/repository/memory"
	sqliteRepo "github.com/sakif/snippets-guru/internal/repository/sqlite"
	"github.com/sakif/snippets-guru/internal/service"
)

type Config struct {
	Port      int
	DBPath    string // accounts database; ":memory:" keeps nothing across restarts
	JWTSecret string

	// PasswordCost overrides the bcrypt cost. Zero uses auth.DefaultCost.
	PasswordCost int
}

type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	auth   *service.AuthService
}

func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = ":memory:"
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	passwords := auth.NewPasswordService()
	if cfg.PasswordCost != 0 {
		passwords = auth.NewPasswordServiceWithCost(cfg.PasswordCost)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("server: opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		auth:   service.NewAuthService(db, tokens, passwords, logger),
	}

	s.setupRoutes(tokens)

	return s, nil
}

func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.LocalCORS())

	store := memory.NewRemoteStore()

	authHandler := handler.NewAuthHandler(s.auth, s.logger)
	snippetHandler := handler.NewSnippetHandler(store, s.auth, s.logger)
	blobHandler := handler.NewBlobHandler(store, s.auth, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/login_check", authHandler.HandleLoginCheck)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/account", authHandler.HandleAccount)

			r.Get("/snippets", snippetHandler.HandleList)
			r.Post("/snippets", snippetHandler.HandleCreate)
			r.Get("/snippets/{id}", snippetHandler.HandleGet)
			r.Put("/snippets/{id}", snippetHandler.HandleUpdate)
			r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
			r.Get("/snippets/{id}/blobs", snippetHandler.HandleBlobs)

			r.Post("/blobs", blobHandler.HandleCreate)
			r.Get("/blobs/{id}", blobHandler.HandleGet)
			r.Put("/blobs/{id}", blobHandler.HandleUpdate)
			r.Delete("/blobs/{id}", blobHandler.HandleDelete)

			r.Get("/revisions/{id}", blobHandler.HandleRevision)
		})
	})
}

// Handler returns the router, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Register creates an account that can log in through /api/login_check.
func (s *Server) Register(ctx context.Context, in service.RegisterInput) error {
	if _, err := s.auth.Register(ctx, in); err != nil {
		return fmt.Errorf("server: registering %s: %w", in.Email, err)
	}
	return nil
}

func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("dev server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("dev server stopped")
	}

	return nil
}
