package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/barcoder/internal/config"
	"github.com/dgallion1/barcoder/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for barcoder.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config
	usage        usagePage
	now          func() time.Time
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) (*Server, error) {
	usage, err := renderUsage(usageMarkdown)
	if err != nil {
		return nil, err
	}
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
		usage:        usage,
		now:          time.Now,
	}
	s.setupRoutes()
	return s, nil
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
	r.Get("/", s.handleUsage)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.BarcoderAPIKey, s.log))

		r.Post("/api/stamp", s.handleStamp)
		r.Get("/api/runs/{runID}", s.handleRunStatus)
		r.Get("/api/state", s.handleState)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
