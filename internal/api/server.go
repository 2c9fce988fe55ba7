package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/fb2fetch/internal/config"
	"github.com/dgallion1/fb2fetch/internal/fetch"
	"github.com/dgallion1/fb2fetch/internal/library"
	"github.com/dgallion1/fb2fetch/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for fb2fetch.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	library      *library.Store
	fetchStats   *fetch.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, lib *library.Store, stats *fetch.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		library:      lib,
		fetchStats:   stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey))

		r.Post("/api/books/fetch", s.handleFetch)
		r.Post("/api/books/upload", s.handleUpload)
		r.Get("/api/books", s.handleListBooks)
		r.Get("/api/books/{name}", s.handleDownloadBook)
		r.Delete("/api/books/{name}", s.handleDeleteBook)

		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/stats/fetch", s.handleFetchStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
