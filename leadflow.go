package leadflow

import (
	_ "embed"
	"fmt"

	"github.com/aretw0/leadflow/internal/engine"
	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/flow"
	"github.com/aretw0/leadflow/pkg/leads"
	"github.com/aretw0/leadflow/pkg/ports"
)

// Version is the release of this module.
//
//go:embed VERSION
var Version string

type (
	// Engine runs one conversation turn per inbound message.
	Engine = engine.Engine
	// Inbound is one participant message.
	Inbound = engine.Inbound
	// Response summarizes a committed turn.
	Response = engine.Response
	// Option configures an Engine.
	Option = engine.Option
)

// Engine options.
var (
	WithDispatcher      = engine.WithDispatcher
	WithLifecycleHooks  = engine.WithLifecycleHooks
	WithLogger          = engine.WithLogger
	WithActionTimeout   = engine.WithActionTimeout
	WithMaxStepVisits   = engine.WithMaxStepVisits
	WithFallbackMessage = engine.WithFallbackMessage
	WithPresenter       = engine.WithPresenter
	WithMaxInputSize    = engine.WithMaxInputSize
)

// New creates an engine for def that keeps leads in store.
// A nil store keeps leads in memory.
func New(def *flow.Definition, store ports.LeadStore, opts ...Option) (*Engine, error) {
	if def == nil {
		return nil, fmt.Errorf("flow definition is required")
	}
	if store == nil {
		store = memory.NewStore()
	}
	return engine.New(def, leads.NewManager(store, leads.WithStartStep(def.Start())), opts...)
}

// Open loads the flow file at path and creates an engine for it.
func Open(path string, store ports.LeadStore, opts ...Option) (*Engine, error) {
	def, err := flow.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load flow: %w", err)
	}
	return New(def, store, opts...)
}
