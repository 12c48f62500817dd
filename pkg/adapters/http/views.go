package http

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/aretw0/leadflow/internal/presentation/graph"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// ListLeads handles GET /leads.
func (s *Server) ListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.cfg.Leads.List(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "failed to list leads")
		s.logger.Error("ListLeads failed", "error", err)
		return
	}
	if step := r.URL.Query().Get("step"); step != "" {
		leads = slices.DeleteFunc(leads, func(l *domain.Lead) bool { return l.CurrentStepID != step })
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

// GetLead handles GET /leads/{channelID}.
func (s *Server) GetLead(w http.ResponseWriter, r *http.Request) {
	lead, ok := s.loadLead(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// LeadGraph handles GET /leads/{channelID}/graph: the flow graph with the
// lead's answered steps and current position highlighted.
func (s *Server) LeadGraph(w http.ResponseWriter, r *http.Request) {
	lead, ok := s.loadLead(w, r)
	if !ok {
		return
	}
	writeMermaid(w, graph.GenerateMermaid(s.cfg.Flow, graph.OverlayFor(s.cfg.Flow, lead)))
}

func (s *Server) loadLead(w http.ResponseWriter, r *http.Request) (*domain.Lead, bool) {
	channelID := chi.URLParam(r, "channelID")
	lead, err := s.cfg.Leads.Get(r.Context(), channelID)
	if errors.Is(err, domain.ErrLeadNotFound) {
		writeError(w, http.StatusNotFound, "lead not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "failed to load lead")
		s.logger.Error("load lead failed", "channel_id", channelID, "error", err)
		return nil, false
	}
	return lead, true
}

type optionView struct {
	Position int    `json:"position"`
	Label    string `json:"label"`
	Value    string `json:"value"`
	Next     string `json:"next,omitempty"`
}

type stepView struct {
	ID       string         `json:"id"`
	Kind     string         `json:"kind"`
	Next     string         `json:"next,omitempty"`
	Content  string         `json:"content,omitempty"`
	Question string         `json:"question,omitempty"`
	Options  []optionView   `json:"options,omitempty"`
	Action   string         `json:"action,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
}

type flowView struct {
	Version  string     `json:"version,omitempty"`
	Start    string     `json:"start"`
	Terminal string     `json:"terminal"`
	Steps    []stepView `json:"steps"`
}

// Flow handles GET /flow.
func (s *Server) Flow(w http.ResponseWriter, r *http.Request) {
	def := s.cfg.Flow
	view := flowView{
		Version:  def.Version(),
		Start:    def.Start(),
		Terminal: def.Terminal(),
	}
	for _, step := range def.Steps() {
		sv := stepView{
			ID:       step.ID,
			Kind:     step.Kind.String(),
			Next:     step.Next,
			Content:  step.Content,
			Question: step.Question,
			Action:   step.Action,
			Params:   step.Params,
		}
		for i, opt := range step.Options {
			sv.Options = append(sv.Options, optionView{Position: i + 1, Label: opt.Label, Value: opt.Value, Next: opt.Next})
		}
		view.Steps = append(view.Steps, sv)
	}
	writeJSON(w, http.StatusOK, view)
}

// FlowGraph handles GET /flow/graph.
func (s *Server) FlowGraph(w http.ResponseWriter, r *http.Request) {
	writeMermaid(w, graph.GenerateMermaid(s.cfg.Flow, nil))
}

func writeMermaid(w http.ResponseWriter, chart string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(strings.TrimRight(chart, "\n") + "\n"))
}
