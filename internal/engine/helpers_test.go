package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/leadflow/internal/engine"
	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/flow"
	"github.com/aretw0/leadflow/pkg/leads"
	"github.com/aretw0/leadflow/pkg/ports"
	"github.com/stretchr/testify/require"
)

const qualificationFlow = `
start: start
prompts:
  invalid_option: "Opção inválida."
  non_numeric: "Digite o número da opção."
  completed: "Atendimento concluído, {{name}}."
  fallback: "{{presenter.name}} entrará em contato em breve!"
steps:
  - id: start
    kind: message
    content: "Olá {{name}}! Sou a assistente de {{presenter.name}}."
    next: ask_profile
  - id: ask_profile
    kind: choice
    question: "Para quem é o plano?"
    options:
      - {label: individual, value: individual}
      - {label: casal, value: casal}
      - {label: familia, value: familia}
      - {label: corporativo, value: corporativo}
    next: result
  - id: result
    kind: action
    action: generate_recommendation
    next: done
`

const menuFlow = `
start: menu
steps:
  - id: menu
    kind: choice
    question: "Menu"
    options:
      - {label: again, value: a, next: menu}
      - {label: stop, value: b}
`

const loopFlow = `
start: a
steps:
  - id: a
    kind: message
    content: "A"
    next: b
  - id: b
    kind: message
    content: "B"
    next: a
`

var presenter = domain.Presenter{Name: "Joana", Years: 12}

func mustFlow(t *testing.T, src string) *flow.Definition {
	t.Helper()
	def, err := flow.Parse([]byte(src), flow.FormatYAML)
	require.NoError(t, err)
	return def
}

type fixture struct {
	engine  *engine.Engine
	manager *leads.Manager
	store   ports.LeadStore
}

func newFixture(t *testing.T, src string, store ports.LeadStore, opts ...engine.Option) *fixture {
	t.Helper()
	if store == nil {
		store = memory.NewStore()
	}
	def := mustFlow(t, src)
	manager := leads.NewManager(store, leads.WithStartStep(def.Start()))
	opts = append([]engine.Option{engine.WithPresenter(presenter)}, opts...)
	eng, err := engine.New(def, manager, opts...)
	require.NoError(t, err)
	return &fixture{engine: eng, manager: manager, store: store}
}

func (f *fixture) send(t *testing.T, channelID, text string) *engine.Response {
	t.Helper()
	resp, err := f.engine.Handle(context.Background(), engine.Inbound{ChannelID: channelID, DisplayName: "Ana", Text: text})
	require.NoError(t, err)
	return resp
}

// recordingDispatcher answers every request with resp and keeps the requests.
type recordingDispatcher struct {
	mu       sync.Mutex
	resp     domain.ActionResponse
	err      error
	requests []domain.ActionRequest
}

func (d *recordingDispatcher) Dispatch(_ context.Context, req domain.ActionRequest) (domain.ActionResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = append(d.requests, req)
	return d.resp, d.err
}

// failingStore fails every Save after the first n.
type failingStore struct {
	*memory.Store
	mu    sync.Mutex
	saves int
	n     int
}

var errDiskFull = errors.New("disk full")

func (s *failingStore) Save(ctx context.Context, lead *domain.Lead) error {
	s.mu.Lock()
	s.saves++
	fail := s.saves > s.n
	s.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return s.Store.Save(ctx, lead)
}
