// Package server serves valuation reports over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/ledger"
	"github.com/etnz/valuation/renderer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
)

// Config holds server configuration
type Config struct {
	Addr string
	// Ledger returns the current content of the ledger file.
	Ledger func() ([]byte, error)
	Engine *valuation.Engine
	// Bucket is the time bucket reports are cached for.
	Bucket   time.Duration
	Render   renderer.Options
	Timeout  time.Duration
	CORSOpen bool
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    Config
	cache  *valuation.ReportCache
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		cache:  valuation.NewReportCache(cfg.Bucket),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

// Cache returns the report cache of the server.
func (s *Server) Cache() *valuation.ReportCache { return s.cache }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(loggingMiddleware)
	s.router.Use(middleware.Timeout(s.cfg.Timeout))

	origins := []string{"http://localhost:*"}
	if s.cfg.CORSOpen {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/", s.handleHTML)
	s.router.Get("/report.md", s.handleMarkdown)
	s.router.Get("/report.json", s.handleJSON)
	s.router.Post("/refresh", s.handleRefresh)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.WithField("addr", s.cfg.Addr).Info("starting HTTP server")
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// report returns the report of the current ledger, from the cache when possible.
//
// The rank query parameter reranks the cached report.
func (s *Server) report(r *http.Request) (*valuation.Report, int, error) {
	key, err := valuation.ParseRankingKey(r.URL.Query().Get("rank"))
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	content, err := s.cfg.Ledger()
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	rows, err := ledger.Parse(content)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, err
	}

	// The run outlives the request, bounded by the server timeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.cfg.Timeout)
	defer cancel()
	report := s.cache.GetOrCompute(ctx, content, func(ctx context.Context) *valuation.Report {
		return s.cfg.Engine.Run(ctx, rows)
	})
	if r.URL.Query().Has("rank") {
		report = report.Rerank(key)
	}
	return report, http.StatusOK, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"reports": s.cache.Len(),
		"quotes":  s.cfg.Engine.Fetcher.Cache().Len(),
	})
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	report, status, err := s.report(r)
	if err != nil {
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	report, status, err := s.report(r)
	if err != nil {
		writeError(w, status, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(renderer.Markdown(report, s.cfg.Render)))
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	report, status, err := s.report(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	page, err := renderer.HTML(s.cfg.Render.Title, renderer.Markdown(report, s.cfg.Render))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handleRefresh drops cached reports and prices, the next request fetches fresh quotes.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.cache.Flush()
	s.cfg.Engine.Fetcher.Cache().Flush()
	log.Info("caches flushed")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("cannot encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("HTTP request")
	})
}
