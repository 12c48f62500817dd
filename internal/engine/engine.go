// Package engine runs one conversation turn per inbound message: it walks the
// flow from the lead's current step, consumes the participant's answer, calls
// capabilities on action steps and commits the resulting lead state atomically.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/leadflow/internal/logging"
	"github.com/aretw0/leadflow/internal/metrics"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/flow"
	"github.com/aretw0/leadflow/pkg/leads"
	"github.com/aretw0/leadflow/pkg/ports"
)

// Defaults applied by New.
const (
	DefaultActionTimeout = 30 * time.Second
	DefaultMaxStepVisits = 1
	// DefaultFallbackMessage is sent when a capability fails and no other
	// fallback text is configured.
	DefaultFallbackMessage = "Thanks! Someone from our team will get in touch shortly."
)

var (
	// ErrMissingChannel is returned for messages without a channel id.
	ErrMissingChannel = errors.New("inbound message has no channel id")
	// ErrNoDispatcher is reported to the fallback path when no dispatcher is configured.
	ErrNoDispatcher = errors.New("no action dispatcher configured")
)

// Inbound is one message received from a participant.
type Inbound struct {
	ChannelID   string
	DisplayName string
	Text        string
	Timestamp   time.Time
}

// Status summarizes how a turn ended.
type Status string

const (
	// StatusOK means the lead now waits on a choice step.
	StatusOK Status = "ok"
	// StatusInvalid means the input did not select an option; the choice was redisplayed.
	StatusInvalid Status = "invalid"
	// StatusCompleted means the lead reached the end of the flow.
	StatusCompleted Status = "completed"
)

// Response is the outcome of Handle.
type Response struct {
	LeadID        string `json:"lead_id"`
	CurrentStepID string `json:"current_step_id"`
	// LastOutgoingText is the last text sent during this turn, "" if none.
	LastOutgoingText string                `json:"last_outgoing_text"`
	Outgoing         []domain.HistoryEntry `json:"outgoing"`
	Status           Status                `json:"status"`
	Reason           flow.InvalidReason    `json:"reason,omitempty"`
	Created          bool                  `json:"created"`
}

// Engine is the conversation state machine.
type Engine struct {
	def           *flow.Definition
	leads         *leads.Manager
	dispatcher    ports.ActionDispatcher
	hooks         domain.LifecycleHooks
	metrics       *metrics.Metrics
	logger        *slog.Logger
	actionTimeout time.Duration
	maxVisits     int
	fallback      string
	presenter     domain.Presenter
	maxInput      int
	clock         func() time.Time
}

// Option configures the Engine.
type Option func(*Engine)

// WithDispatcher sets the capability dispatcher used by action steps.
func WithDispatcher(d ports.ActionDispatcher) Option {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMetrics records turn outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithActionTimeout bounds how long a turn waits for a capability.
func WithActionTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.actionTimeout = d
		}
	}
}

// WithMaxStepVisits sets how often a step may be entered in one turn
// without consuming input before the turn fails with a FlowCycleError.
func WithMaxStepVisits(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxVisits = n
		}
	}
}

// WithFallbackMessage sets the last-resort text for failed capabilities.
func WithFallbackMessage(text string) Option {
	return func(e *Engine) {
		e.fallback = text
	}
}

// WithPresenter exposes presenter fields to flow templates.
func WithPresenter(p domain.Presenter) Option {
	return func(e *Engine) {
		e.presenter = p
	}
}

// WithMaxInputSize bounds inbound text in bytes.
func WithMaxInputSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxInput = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// New creates an engine for def. The manager must position new leads on def.Start().
func New(def *flow.Definition, manager *leads.Manager, opts ...Option) (*Engine, error) {
	if def == nil {
		return nil, fmt.Errorf("flow definition is required")
	}
	if manager == nil {
		return nil, fmt.Errorf("lead manager is required")
	}
	if manager.StartStep() != def.Start() {
		return nil, fmt.Errorf("lead manager starts on %q but the flow starts on %q", manager.StartStep(), def.Start())
	}

	e := &Engine{
		def:           def,
		leads:         manager,
		logger:        logging.NewNop(),
		actionTimeout: DefaultActionTimeout,
		maxVisits:     DefaultMaxStepVisits,
		maxInput:      DefaultMaxInputSize,
		fallback:      DefaultFallbackMessage,
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Definition returns the flow the engine runs.
func (e *Engine) Definition() *flow.Definition {
	return e.def
}

// Leads returns the lead manager.
func (e *Engine) Leads() *leads.Manager {
	return e.leads
}

// Handle processes one inbound message and commits the resulting lead state.
// On error nothing from this turn is persisted.
func (e *Engine) Handle(ctx context.Context, in Inbound) (*Response, error) {
	in.ChannelID = strings.TrimSpace(in.ChannelID)
	if in.ChannelID == "" {
		return nil, ErrMissingChannel
	}
	text, err := SanitizeInput(in.Text, e.maxInput)
	if err != nil {
		return nil, err
	}
	in.Text = text
	if in.Timestamp.IsZero() {
		in.Timestamp = e.clock()
	}

	var resp *Response
	lead, err := e.leads.Transact(ctx, in.ChannelID, in.DisplayName, func(tx *leads.Tx) error {
		t := &turn{Engine: e, tx: tx, in: in, visits: make(map[string]int)}
		r, err := t.run(ctx)
		resp = r
		return err
	})
	if err != nil {
		e.metrics.ObserveTurn("error")
		e.logger.Error("turn failed", "channel_id", in.ChannelID, "error", err)
		return nil, err
	}

	resp.LeadID = lead.ID
	resp.CurrentStepID = lead.CurrentStepID
	if n := len(resp.Outgoing); n > 0 {
		resp.LastOutgoingText = resp.Outgoing[n-1].Text
	}
	e.metrics.ObserveTurn(string(resp.Status))
	e.logger.Debug("turn committed",
		"lead_id", lead.ID,
		"step_id", lead.CurrentStepID,
		"status", resp.Status,
		"outgoing", len(resp.Outgoing),
	)
	return resp, nil
}

// fallbackText picks the first non-blank fallback, from the step outward to
// the engine, and never returns "".
func (e *Engine) fallbackText(step domain.Step) string {
	for _, text := range []string{step.Fallback, e.def.Prompts().Fallback, e.fallback} {
		if strings.TrimSpace(text) != "" {
			return text
		}
	}
	return DefaultFallbackMessage
}
