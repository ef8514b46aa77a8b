// Package api - Thin HTTP layer over the estimation engine.
// The API is ONLY responsible for: input ingestion, engine orchestration,
// lead persistence and output serialization. It NEVER performs pricing logic.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"widget-estimate/adapters/storage"
	"widget-estimate/adapters/widgets"
	"widget-estimate/core/engine"
	"widget-estimate/core/pricing"
	apperrors "widget-estimate/internal/errors"
	"widget-estimate/internal/logging"
)

// Options configures the API server
type Options struct {
	// Version is reported by /health and /version
	Version string

	// Widgets resolves widget configurations (required)
	Widgets widgets.Provider

	// Estimator runs estimates; built from Widgets when nil
	Estimator *engine.Estimator

	// Leads persists captured leads; lead routes answer 503 when nil
	Leads storage.Store

	// Notifier is told about captured leads; optional
	Notifier LeadNotifier

	// Logger is the base request logger; the global logger when nil
	Logger *zap.Logger

	// RequestTimeout bounds each request; zero disables the timeout
	RequestTimeout time.Duration

	// MaxBodyBytes caps request bodies; zero disables the cap
	MaxBodyBytes int64
}

// Server is the API server
type Server struct {
	handler *Handler
	router  chi.Router
	version string
	srv     *http.Server
}

// NewServer creates a new API server
func NewServer(opts Options) (*Server, error) {
	if opts.Widgets == nil {
		return nil, apperrors.Config("api server requires a widget provider", nil)
	}
	if opts.Estimator == nil {
		opts.Estimator = engine.NewEstimator(opts.Widgets)
	}
	if opts.Logger == nil {
		opts.Logger = logging.FromContext(context.Background())
	}

	s := &Server{
		handler: NewHandler(opts.Widgets, opts.Estimator, opts.Leads).WithNotifier(opts.Notifier, opts.Logger),
		router:  chi.NewRouter(),
		version: opts.Version,
	}
	s.registerRoutes(opts)
	return s, nil
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes(opts Options) {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}
	r.Use(limitBody(opts.MaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "NOT_FOUND", "route not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "METHOD_NOT_ALLOWED", "method not allowed", http.StatusMethodNotAllowed)
	})

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/api", func(r chi.Router) {
		r.Get("/widgets", s.handler.ListWidgets)
		r.Route("/widget/{widgetKey}", func(r chi.Router) {
			r.Get("/config", s.handler.GetConfig)
			r.Post("/estimate", s.handler.Estimate)
			r.Post("/leads", s.handler.CreateLead)
		})
		r.Get("/leads", s.handler.ListLeads)
		r.Get("/leads/{leadID}", s.handler.GetLead)
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"version":        s.version,
		"engine":         "widget-estimate",
		"engine_version": pricing.Version,
	}, http.StatusOK)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the server and blocks until ctx is cancelled or the
// listener fails. Cancellation drains in-flight requests for up to
// shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.FromContext(ctx).Info("http server listening", zap.String("addr", addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logging.FromContext(ctx).Info("http server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code, message string, status int) {
	writeJSON(w, ErrorResponse{Error: ErrorBody{Code: code, Message: message}}, status)
}
