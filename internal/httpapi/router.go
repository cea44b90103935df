package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"equity-feature-lab/internal/observability"
)

// NewRouter builds the router. metrics may be nil to serve the default registry.
func NewRouter(tracker *Tracker, metrics http.Handler) http.Handler {
	if metrics == nil {
		metrics = observability.Handler()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics)
	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, tracker.Snapshot())
	})
	return r
}

// Server runs the router in the background.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// Start listens on addr in a new goroutine.
func Start(addr string, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		srv:    &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second},
		logger: logger,
	}
	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
		}
	}()
	return s
}

// Shutdown stops the server, waiting up to five seconds for open requests.
func (s *Server) Shutdown() {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("HTTP server shutdown", "error", err)
	}
}
