// Package server is the composition root: it opens the store, builds the
// services and handlers, and mounts them on a chi router.
//
// DEPENDENCY FLOW:
//
//	config.ServerConfig → Store (sqlite | postgres)
//	Store → IssueService / AuthService → IssueHandler / AuthHandler / PageHandler
//
// Each layer only receives what it needs. Services get repository
// interfaces, never the concrete driver; handlers get services.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/issue-tracker/internal/auth"
	"github.com/sakif/issue-tracker/internal/config"
	"github.com/sakif/issue-tracker/internal/handler"
	"github.com/sakif/issue-tracker/internal/middleware"
	"github.com/sakif/issue-tracker/internal/repository"
	pgRepo "github.com/sakif/issue-tracker/internal/repository/postgres"
	sqliteRepo "github.com/sakif/issue-tracker/internal/repository/sqlite"
	"github.com/sakif/issue-tracker/internal/service"
	"github.com/sakif/issue-tracker/internal/validate"
)

// Store is everything the server needs from a database driver.
type Store interface {
	repository.IssueRepository
	repository.UserRepository
	io.Closer
}

// OpenStore opens the driver named by cfg.DBDriver.
func OpenStore(ctx context.Context, cfg *config.ServerConfig) (Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		st, err := pgRepo.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.DBDriver)
}

// Server owns the router and the store. The store is closed when Start
// returns.
type Server struct {
	router *chi.Mux
	config *config.ServerConfig
	logger *slog.Logger
	store  Store
}

// New wires a server around an already opened store.
func New(cfg *config.ServerConfig, store Store, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes mounts every route.
//
//	GET    /issues/list              HTML issue list
//	GET    /auth/github/login        start OAuth (only with GitHub + JWT configured)
//	GET    /auth/github/callback
//	POST   /auth/logout
//	GET    /api/issues               list
//	POST   /api/issues               create       (session)
//	GET    /api/issues/{id}          read
//	PATCH  /api/issues/{id}          update       (session)
//	DELETE /api/issues/{id}          delete       (session)
//	GET    /api/me                   current user (session)
//	GET    /api/users                all users    (session)
//
// Middleware order: RequestID must come before Logger so the id is logged.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// Without a JWT secret nobody can hold a session, so every protected
	// route answers 401.
	var (
		sessions auth.SessionProvider = auth.NoSessions
		tokens   *auth.TokenService
	)
	if s.config.JWTSecret != "" {
		var err error
		tokens, err = auth.NewTokenService(s.config.JWTSecret)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
		sessions = tokens
	} else {
		s.logger.Warn("JWT_SECRET not set, authentication is disabled")
	}

	issueService := service.NewIssueService(s.store, s.store, validate.New(), s.logger)
	issueHandler := handler.NewIssueHandler(issueService, sessions, s.logger)

	pageHandler, err := handler.NewPageHandler(issueService, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/issues/list", http.StatusFound)
	})
	s.router.Get("/issues/list", pageHandler.HandleIssueList)

	var authHandler *handler.AuthHandler
	if tokens != nil {
		authService := service.NewAuthService(s.store, tokens, s.logger)
		github := auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
		authHandler = handler.NewAuthHandler(github, authService, s.logger)

		if s.config.GitHubEnabled() {
			s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
			s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		} else {
			s.logger.Warn("GitHub OAuth not configured, login routes disabled")
		}
		s.router.Post("/auth/logout", authHandler.HandleLogout)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/issues", issueHandler.HandleList)
		r.Post("/issues", issueHandler.HandleCreate)
		r.Get("/issues/{id}", issueHandler.HandleGet)
		r.Patch("/issues/{id}", issueHandler.HandleUpdate)
		r.Delete("/issues/{id}", issueHandler.HandleDelete)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(sessions))
			if authHandler != nil {
				r.Get("/me", authHandler.HandleMe)
				r.Get("/users", authHandler.HandleUsers)
			} else {
				// RequireAuth always rejects with NoSessions; the routes
				// still exist so clients see 401 rather than 404.
				unreachable := http.NotFoundHandler().ServeHTTP
				r.Get("/me", unreachable)
				r.Get("/users", unreachable)
			}
		})
	})

	return nil
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the store.
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         s.config.Addr(),
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
			slog.String("addr", srv.Addr),
			slog.String("driver", s.config.DBDriver),
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
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
