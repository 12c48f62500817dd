package actions

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/leadflow/internal/logging"
	"github.com/aretw0/leadflow/pkg/domain"
)

// Handler implements one capability.
type Handler func(ctx context.Context, req domain.ActionRequest) (domain.ActionResponse, error)

// Aliases accepted for the built-in capabilities, as used by flows authored in Portuguese.
const (
	AliasGenerateRecommendation = "gerar_resposta_ia"
	AliasRenderComparison       = "gerar_comparativo"
	AliasScoreLead              = "calcular_score"
)

// Dispatcher routes action requests to registered handlers.
// It implements ports.ActionDispatcher.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   *slog.Logger
	clock    func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithClock overrides the time source used to name artifacts.
func WithClock(clock func() time.Time) Option {
	return func(d *Dispatcher) {
		d.clock = clock
	}
}

// WithRecommender registers generate_recommendation backed by r.
func WithRecommender(r Recommender) Option {
	return func(d *Dispatcher) {
		d.Register(domain.ActionGenerateRecommendation, RecommendationHandler(r), AliasGenerateRecommendation)
	}
}

// WithComparison registers render_comparison. Images are drawn by r and kept in store.
func WithComparison(r ComparisonRenderer, store ArtifactStore, presenter domain.Presenter) Option {
	return func(d *Dispatcher) {
		d.Register(domain.ActionRenderComparison, ComparisonHandler(r, store, presenter, d.now), AliasRenderComparison)
	}
}

// NewDispatcher creates a dispatcher with score_lead registered.
// Other capabilities are added through options or Register.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string]Handler),
		logger:   logging.NewNop(),
		clock:    time.Now,
	}
	d.Register(domain.ActionScoreLead, ScoreHandler, AliasScoreLead)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds a handler under name and every alias.
// An existing handler with the same name is overwritten.
func (d *Dispatcher) Register(name string, h Handler, aliases ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = h
	for _, alias := range aliases {
		d.handlers[alias] = h
	}
}

// Has reports whether name can be dispatched.
func (d *Dispatcher) Has(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[name]
	return ok
}

// Names lists every registered name, aliases included, sorted.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Dispatch executes the handler registered for req.Name.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.ActionRequest) (domain.ActionResponse, error) {
	d.mu.RLock()
	h, ok := d.handlers[req.Name]
	d.mu.RUnlock()

	if !ok {
		return domain.ActionResponse{}, &ActionError{Action: req.Name, Err: ErrUnknownAction}
	}

	resp, err := h(ctx, req)
	if err != nil {
		d.logger.Debug("action failed", "action", req.Name, "step_id", req.StepID, "error", err)
		return domain.ActionResponse{}, &ActionError{Action: req.Name, Err: err}
	}
	return resp, nil
}

func (d *Dispatcher) now() time.Time {
	return d.clock()
}
