package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"curator/internal/core"
)

// Server is the HTTP front of the dashboard: health plus every feature's routes
type Server struct {
	config   *core.Config
	logger   *core.Logger
	db       *core.Database
	registry *core.Registry
	boundary *core.Boundary
	router   chi.Router
	server   *http.Server
}

// New creates a server mounting the enabled features of registry
func New(config *core.Config, logger *core.Logger, db *core.Database, registry *core.Registry) *Server {
	srv := &Server{
		config:   config,
		logger:   logger.ForFeature("server"),
		db:       db,
		registry: registry,
	}
	srv.boundary = core.NewBoundary(srv.logger, nil)

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)
	mux.Use(s.boundary.Middleware)

	mux.Get("/health", s.healthCheck)

	s.registry.Mount(mux)

	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		core.WriteErrorResponse(w, http.StatusNotFound, core.NewNotFoundError("The requested resource could not be found", nil))
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		core.WriteErrorResponse(w, http.StatusMethodNotAllowed, core.NewAppError(core.ErrCodeValidation, fmt.Sprintf("The %s method is not supported for this resource", r.Method), nil))
	})

	s.router = mux
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
	}
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if s.db != nil {
		if err := s.db.PingWithTimeout(2 * time.Second); err != nil {
			s.logger.Error("Health check failed", "error", err)
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	core.WriteJSON(w, code, map[string]any{
		"status":   status,
		"service":  "curator",
		"features": s.registry.Status(),
	})
}

// Start initializes the features and serves until Shutdown is called
func (s *Server) Start(ctx context.Context) error {
	if err := s.registry.InitAll(ctx); err != nil {
		s.logger.Error("Failed to initialize features", "error", err)
		return err
	}

	s.logger.Info("Starting server", "host", s.config.Server.Host, "port", s.config.Server.Port)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the features and drains the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	if err := s.registry.ShutdownAll(ctx); err != nil {
		s.logger.Error("Failed to shutdown features", "error", err)
	}

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
