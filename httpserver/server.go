package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/polyrun/polyrun/config"
	"github.com/polyrun/polyrun/runner"
)

// Server is the HTTP server for the web API.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	executor runner.Executor
	router   chi.Router
	http     *http.Server
}

// New creates a new Server.
func New(cfg *config.Config, logger *zap.Logger, executor runner.Executor) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		executor: executor,
		router:   chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(jsonContentType)

			r.Get("/languages", s.handleListLanguages)
			r.Get("/health", s.handleHealth)
			r.Post("/run", s.handleRun)
		})

		// WebSocket upgrade, no JSON content-type
		r.Get("/run/ws", s.handleRunWebSocket)
	})
}

// jsonContentType sets Content-Type to application/json for API routes.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Handler returns the root handler, used by tests and by Start.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.HTTPPort)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	s.logger.Info("starting web server", zap.String("addr", addr))
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	s.logger.Info("shutting down web server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
