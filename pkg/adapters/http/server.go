// Package http exposes the conversation engine over HTTP: the inbound
// webhook, read-only lead and flow views, health and metrics.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/leadflow/internal/engine"
	"github.com/aretw0/leadflow/internal/logging"
	"github.com/aretw0/leadflow/internal/metrics"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/flow"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Conversation runs one turn per inbound message.
type Conversation interface {
	Handle(ctx context.Context, in engine.Inbound) (*engine.Response, error)
}

// LeadReader is the read side of the lead store.
type LeadReader interface {
	Get(ctx context.Context, channelID string) (*domain.Lead, error)
	List(ctx context.Context) ([]*domain.Lead, error)
}

// Config holds the handler dependencies. Engine, Leads and Flow are required.
type Config struct {
	Engine Conversation
	Leads  LeadReader
	Flow   *flow.Definition

	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	// ArtifactDir is served under /artifacts when set.
	ArtifactDir        string
	CORSAllowedOrigins []string
}

// Server holds the handlers.
type Server struct {
	cfg    Config
	logger *slog.Logger
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(cfg Config) http.Handler {
	s := &Server{cfg: cfg, logger: cfg.Logger}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(RequestLogger(s.logger))
	r.Use(Instrument(cfg.Metrics))

	r.Get("/health", s.Health)
	r.Post("/webhook", s.Webhook)
	r.Route("/leads", func(r chi.Router) {
		r.Get("/", s.ListLeads)
		r.Get("/{channelID}", s.GetLead)
		r.Get("/{channelID}/graph", s.LeadGraph)
	})
	r.Get("/flow", s.Flow)
	r.Get("/flow/graph", s.FlowGraph)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.ArtifactDir != "" {
		r.Handle("/artifacts/*", http.StripPrefix("/artifacts/", http.FileServer(http.Dir(cfg.ArtifactDir))))
	}
	return r
}

// Health reports liveness and the loaded flow version.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "ok",
		"flow_version": s.cfg.Flow.Version(),
	})
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Status: "error", Message: strings.TrimSpace(msg)})
}
