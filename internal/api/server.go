package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docweave/internal/assets"
	"github.com/dgallion1/docweave/internal/config"
	"github.com/dgallion1/docweave/internal/pipeline"
)

// Server is the HTTP API server for docweave.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	fetcher      assets.Fetcher
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. A nil fetcher leaves
// remote image sources unresolved.
func NewServer(orch *pipeline.Orchestrator, fetcher assets.Fetcher, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		fetcher:      fetcher,
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
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/render", s.handleRender)
		r.Post("/api/preview", s.handlePreview)

		r.Post("/api/exports", s.handleCreateExport)
		r.Get("/api/exports/{jobID}", s.handleExportStatus)
		r.Get("/api/exports/{jobID}/download", s.handleExportDownload)
		r.Get("/api/stats", s.handleStats)

		r.Post("/api/import", s.handleImport)
		r.Post("/api/import/markdown", s.handleImportMarkdown)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
