package engine_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/leadflow/internal/engine"
	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/flow"
	"github.com/aretw0/leadflow/pkg/leads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsMismatchedStart(t *testing.T) {
	def := mustFlow(t, menuFlow)
	_, err := engine.New(def, leads.NewManager(memory.NewStore()))
	assert.Error(t, err)
}

func TestHandle_ScenarioA(t *testing.T) {
	dispatcher := &recordingDispatcher{resp: domain.ActionResponse{Text: "Recomendo um plano familiar regional."}}
	f := newFixture(t, qualificationFlow, nil, engine.WithDispatcher(dispatcher))

	resp := f.send(t, "5511999990000", "hi")

	assert.True(t, resp.Created)
	assert.Equal(t, engine.StatusOK, resp.Status)
	assert.Equal(t, "ask_profile", resp.CurrentStepID)
	require.Len(t, resp.Outgoing, 2)
	assert.Equal(t, "Olá Ana! Sou a assistente de Joana.", resp.Outgoing[0].Text)
	assert.Equal(t, "Para quem é o plano?\n1. individual\n2. casal\n3. familia\n4. corporativo", resp.LastOutgoingText)
	assert.Empty(t, dispatcher.requests)

	resp = f.send(t, "5511999990000", "3")

	assert.False(t, resp.Created)
	assert.Equal(t, engine.StatusCompleted, resp.Status)
	assert.Equal(t, "done", resp.CurrentStepID)
	assert.Equal(t, "Recomendo um plano familiar regional.", resp.LastOutgoingText)

	require.Len(t, dispatcher.requests, 1)
	req := dispatcher.requests[0]
	assert.Equal(t, domain.ActionGenerateRecommendation, req.Name)
	assert.Equal(t, "result", req.StepID)
	assert.Equal(t, "familia", req.Lead.Answers["ask_profile"])

	lead, err := f.manager.Get(context.Background(), "5511999990000")
	require.NoError(t, err)
	assert.Equal(t, "done", lead.CurrentStepID)
	assert.Equal(t, map[string]string{"ask_profile": "familia"}, lead.Answers)
	assert.Equal(t, resp.LeadID, lead.ID)
}

func TestHandle_ScenarioB(t *testing.T) {
	f := newFixture(t, qualificationFlow, nil)
	f.send(t, "c1", "hi")

	tests := []struct {
		input  string
		reason flow.InvalidReason
		prompt string
	}{
		{"9", flow.ReasonOutOfRange, "Opção inválida."},
		{"0", flow.ReasonOutOfRange, "Opção inválida."},
		{"casal", flow.ReasonNonNumeric, "Digite o número da opção."},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			before, err := f.manager.Get(context.Background(), "c1")
			require.NoError(t, err)

			resp := f.send(t, "c1", tt.input)

			assert.Equal(t, engine.StatusInvalid, resp.Status)
			assert.Equal(t, tt.reason, resp.Reason)
			assert.Equal(t, "ask_profile", resp.CurrentStepID)
			assert.True(t, strings.HasPrefix(resp.LastOutgoingText, tt.prompt+"\n\nPara quem é o plano?\n1. individual"), resp.LastOutgoingText)

			after, err := f.manager.Get(context.Background(), "c1")
			require.NoError(t, err)
			assert.Empty(t, after.Answers)
			assert.Equal(t, before.CurrentStepID, after.CurrentStepID)
			require.Len(t, after.History, len(before.History)+2)
			assert.Equal(t, domain.DirectionIn, after.History[len(before.History)].Direction)
			assert.Equal(t, tt.input, after.History[len(before.History)].Text)
		})
	}
}

func TestHandle_ScenarioC_TimeoutUsesFallback(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	stuck := dispatcherFunc(func(context.Context, domain.ActionRequest) (domain.ActionResponse, error) {
		<-release // ignores ctx on purpose
		return domain.ActionResponse{Text: "too late"}, nil
	})
	f := newFixture(t, qualificationFlow, nil,
		engine.WithDispatcher(stuck),
		engine.WithActionTimeout(50*time.Millisecond),
	)
	f.send(t, "c1", "hi")

	start := time.Now()
	resp := f.send(t, "c1", "2")

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, "done", resp.CurrentStepID)
	assert.Equal(t, engine.StatusCompleted, resp.Status)
	assert.Equal(t, "Joana entrará em contato em breve!", resp.LastOutgoingText)
	assert.Equal(t, "casal", mustGet(t, f, "c1").Answers["ask_profile"])
}

func TestHandle_FallbackPrecedence(t *testing.T) {
	failing := &recordingDispatcher{err: errors.New("provider down")}

	t.Run("flow prompt", func(t *testing.T) {
		f := newFixture(t, qualificationFlow, nil, engine.WithDispatcher(failing))
		f.send(t, "c", "hi")
		assert.Equal(t, "Joana entrará em contato em breve!", f.send(t, "c", "1").LastOutgoingText)
	})

	t.Run("step fallback wins", func(t *testing.T) {
		src := strings.Replace(qualificationFlow, "action: generate_recommendation", "action: generate_recommendation\n    fallback: \"Falha, {{name}}.\"", 1)
		f := newFixture(t, src, nil, engine.WithDispatcher(failing))
		f.send(t, "c", "hi")
		assert.Equal(t, "Falha, Ana.", f.send(t, "c", "1").LastOutgoingText)
	})

	t.Run("engine default", func(t *testing.T) {
		src := strings.Replace(qualificationFlow, "  fallback: \"{{presenter.name}} entrará em contato em breve!\"\n", "", 1)
		f := newFixture(t, src, nil, engine.WithFallbackMessage("Default fallback."))
		f.send(t, "c", "hi")
		assert.Equal(t, "Default fallback.", f.send(t, "c", "1").LastOutgoingText)
	})
}

func TestHandle_DefaultFallbackWithoutFlowPrompt(t *testing.T) {
	src := strings.Replace(qualificationFlow, "  fallback: \"{{presenter.name}} entrará em contato em breve!\"\n", "", 1)
	blocking := dispatcherFunc(func(ctx context.Context, _ domain.ActionRequest) (domain.ActionResponse, error) {
		<-ctx.Done()
		return domain.ActionResponse{}, ctx.Err()
	})
	f := newFixture(t, src, nil,
		engine.WithDispatcher(blocking),
		engine.WithActionTimeout(20*time.Millisecond),
	)
	question := f.send(t, "c", "oi").LastOutgoingText

	resp := f.send(t, "c", "1")

	assert.Equal(t, engine.StatusCompleted, resp.Status)
	assert.Equal(t, "done", resp.CurrentStepID)
	require.Len(t, resp.Outgoing, 1)
	assert.Equal(t, engine.DefaultFallbackMessage, resp.Outgoing[0].Text)
	assert.Equal(t, engine.DefaultFallbackMessage, resp.LastOutgoingText)
	assert.NotEqual(t, question, resp.LastOutgoingText)

	history := mustGet(t, f, "c").History
	last := history[len(history)-1]
	assert.Equal(t, domain.DirectionOut, last.Direction)
	assert.Equal(t, engine.DefaultFallbackMessage, last.Text)
}

func TestHandle_LastOutgoingTextOnlyFromThisTurn(t *testing.T) {
	f := newFixture(t, menuFlow, nil)
	assert.Equal(t, "Menu\n1. again\n2. stop", f.send(t, "c", "hi").LastOutgoingText)

	resp := f.send(t, "c", "2")
	assert.Equal(t, engine.StatusCompleted, resp.Status)
	assert.Empty(t, resp.Outgoing)
	assert.Empty(t, resp.LastOutgoingText)

	resp = f.send(t, "c", "again?")
	assert.Equal(t, engine.StatusCompleted, resp.Status)
	assert.Empty(t, resp.LastOutgoingText)
}

func TestHandle_ActionValueAndArtifact(t *testing.T) {
	src := `
steps:
  - id: start
    kind: choice
    question: "Q"
    options: [{label: yes, value: "y"}]
    next: score
  - id: score
    kind: action
    action: score_lead
    next: picture
  - id: picture
    kind: action
    action: render_comparison
`
	d := dispatcherFunc(func(_ context.Context, req domain.ActionRequest) (domain.ActionResponse, error) {
		if req.Name == "score_lead" {
			return domain.ActionResponse{Value: "20"}, nil
		}
		return domain.ActionResponse{Text: "A x B", Artifact: "s3://bucket/a.png"}, nil
	})
	f := newFixture(t, src, nil, engine.WithDispatcher(d))
	f.send(t, "c", "hi")
	resp := f.send(t, "c", "1")

	require.Len(t, resp.Outgoing, 1, "score produces no text")
	assert.Equal(t, "s3://bucket/a.png", resp.Outgoing[0].Artifact)
	assert.Equal(t, "picture", resp.Outgoing[0].StepID)

	lead := mustGet(t, f, "c")
	assert.Equal(t, "20", lead.Answers["score"])
	assert.Equal(t, "y", lead.Answers["start"])
}

func TestHandle_CompletedLead(t *testing.T) {
	f := newFixture(t, qualificationFlow, nil)
	f.send(t, "c", "hi")
	f.send(t, "c", "1")

	resp := f.send(t, "c", "olá de novo")

	assert.Equal(t, engine.StatusCompleted, resp.Status)
	assert.Equal(t, "done", resp.CurrentStepID)
	assert.Equal(t, "Atendimento concluído, Ana.", resp.LastOutgoingText)
}

func TestHandle_InvalidState(t *testing.T) {
	f := newFixture(t, qualificationFlow, nil)
	f.send(t, "c", "hi")

	lead := mustGet(t, f, "c")
	lead.CurrentStepID = "removed_step"
	require.NoError(t, f.manager.Persist(context.Background(), lead))

	_, err := f.engine.Handle(context.Background(), engine.Inbound{ChannelID: "c", Text: "1"})

	var stateErr *domain.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "removed_step", stateErr.StepID)
	assert.Len(t, mustGet(t, f, "c").History, len(lead.History), "nothing committed")
}

func TestHandle_InputFreeLoopRejectedAtLoad(t *testing.T) {
	_, err := flow.Parse([]byte(loopFlow), flow.FormatYAML)

	require.Error(t, err)
	assert.True(t, flow.IsValidationError(err))
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestHandle_LoopBackThroughConsumedInput(t *testing.T) {
	f := newFixture(t, menuFlow, nil)
	f.send(t, "c", "hi")

	resp := f.send(t, "c", "1")
	assert.Equal(t, engine.StatusOK, resp.Status)
	assert.Equal(t, "menu", resp.CurrentStepID)
	assert.Equal(t, "Menu\n1. again\n2. stop", resp.LastOutgoingText)

	resp = f.send(t, "c", "2")
	assert.Equal(t, engine.StatusCompleted, resp.Status)
	assert.Equal(t, "b", mustGet(t, f, "c").Answers["menu"])
}

func TestHandle_InputOnlyAnswersTheWaitingStep(t *testing.T) {
	f := newFixture(t, qualificationFlow, nil)
	lead, _, err := f.manager.GetOrCreate(context.Background(), "c", "Ana")
	require.NoError(t, err)
	require.Equal(t, "start", lead.CurrentStepID)

	// The lead exists but rests on a message step, so "2" must not answer ask_profile.
	resp := f.send(t, "c", "2")

	assert.Equal(t, "ask_profile", resp.CurrentStepID)
	assert.Empty(t, mustGet(t, f, "c").Answers)
}

func TestHandle_PersistenceFailure(t *testing.T) {
	store := &failingStore{Store: memory.NewStore(), n: 1}
	f := newFixture(t, qualificationFlow, store)

	_, err := f.engine.Handle(context.Background(), engine.Inbound{ChannelID: "c", Text: "hi"})

	var persistErr *domain.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "commit", persistErr.Op)
	assert.ErrorIs(t, err, errDiskFull)

	lead, err := store.Store.Load(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, "start", lead.CurrentStepID)
	assert.Empty(t, lead.History)
}

func TestHandle_MissingChannel(t *testing.T) {
	f := newFixture(t, qualificationFlow, nil)
	_, err := f.engine.Handle(context.Background(), engine.Inbound{ChannelID: "  ", Text: "hi"})
	assert.ErrorIs(t, err, engine.ErrMissingChannel)
}

func TestHandle_ConcurrentMessagesAreSerialized(t *testing.T) {
	f := newFixture(t, menuFlow, nil)
	f.send(t, "c", "hi")

	const n = 20
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Handle(context.Background(), engine.Inbound{ChannelID: "c", Text: "1"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	lead := mustGet(t, f, "c")
	require.Len(t, lead.History, 2*(n+1), "every turn appends one in and one out entry")
	for i, entry := range lead.History {
		want := domain.DirectionIn
		if i%2 == 1 {
			want = domain.DirectionOut
		}
		assert.Equal(t, want, entry.Direction, "entry %d", i)
	}
	assert.Equal(t, "menu", lead.CurrentStepID)
}

func TestHandle_Hooks(t *testing.T) {
	var (
		mu     sync.Mutex
		events []string
	)
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, s)
	}
	hooks := domain.LifecycleHooks{
		OnStepEnter:  func(_ context.Context, e *domain.StepEvent) { record("enter:" + e.StepID) },
		OnStepLeave:  func(_ context.Context, e *domain.StepEvent) { record("leave:" + e.StepID) },
		OnActionCall: func(_ context.Context, e *domain.ActionEvent) { record("call:" + e.Action) },
		OnActionReturn: func(_ context.Context, e *domain.ActionEvent) {
			record(fmt.Sprintf("return:%s:%t", e.Action, e.IsError))
		},
	}
	f := newFixture(t, qualificationFlow, nil,
		engine.WithLifecycleHooks(hooks),
		engine.WithDispatcher(&recordingDispatcher{resp: domain.ActionResponse{Text: "ok"}}),
	)
	f.send(t, "c", "hi")
	f.send(t, "c", "1")

	assert.Equal(t, []string{
		"enter:start", "leave:start", "enter:ask_profile",
		"enter:ask_profile", "leave:ask_profile",
		"enter:result", "call:generate_recommendation", "return:generate_recommendation:false", "leave:result",
	}, events)
}

func TestHandle_NoDispatcherFallsBack(t *testing.T) {
	f := newFixture(t, qualificationFlow, nil)
	f.send(t, "c", "hi")

	resp := f.send(t, "c", "4")

	assert.Equal(t, "done", resp.CurrentStepID)
	assert.Equal(t, "Joana entrará em contato em breve!", resp.LastOutgoingText)
}

func mustGet(t *testing.T, f *fixture, channelID string) *domain.Lead {
	t.Helper()
	lead, err := f.manager.Get(context.Background(), channelID)
	require.NoError(t, err)
	return lead
}

type dispatcherFunc func(context.Context, domain.ActionRequest) (domain.ActionResponse, error)

func (f dispatcherFunc) Dispatch(ctx context.Context, req domain.ActionRequest) (domain.ActionResponse, error) {
	return f(ctx, req)
}
