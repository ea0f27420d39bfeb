// Package api exposes the analyzer operations over HTTP for the UI layer.
package api

import (
	"context"
	"net/http"
	"time"

	apperrors "torncorp-analyzer/internal/common/errors"
	"torncorp-analyzer/internal/common/logger"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *Handlers
	logger   logger.Logger
}

func NewServer(cfg Config, svc Analyzer, store Pinger, log logger.Logger) *Server {
	log = log.WithFields(map[string]interface{}{"component": "http"})

	s := &Server{
		router: mux.NewRouter(),
		handlers: &Handlers{
			svc:    svc,
			store:  store,
			errors: apperrors.NewErrorHandler(log),
			logger: log,
		},
		logger: log,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/health", s.handlers.Health).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.handlers.Ready).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/types", s.handlers.Types).Methods(http.MethodGet)
	api.HandleFunc("/companies", s.handlers.Companies).Methods(http.MethodGet)
	api.HandleFunc("/credential", s.handlers.SetCredential).Methods(http.MethodPut)
	api.HandleFunc("/view", s.handlers.View).Methods(http.MethodGet)
	api.HandleFunc("/filters", s.handlers.ApplyFilters).Methods(http.MethodPut)
	api.HandleFunc("/filters", s.handlers.ResetFilters).Methods(http.MethodDelete)
	api.HandleFunc("/sort", s.handlers.SetSort).Methods(http.MethodPut)
	api.HandleFunc("/bookmarks/{id:[0-9]+}", s.handlers.ToggleBookmark).Methods(http.MethodPost)
	api.HandleFunc("/cache/{type:[0-9]+}", s.handlers.PurgeCache).Methods(http.MethodDelete)

	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

type requestIDKey struct{}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		s.logger.Debug("request served", map[string]interface{}{
			"requestId":  r.Context().Value(requestIDKey{}),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     wrapper.statusCode,
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start blocks serving until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.server.Addr})
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server", nil)
	return s.server.Shutdown(ctx)
}
