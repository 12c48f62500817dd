package engine

import (
	"context"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/flow"
	"github.com/aretw0/leadflow/pkg/leads"
)

// turn holds the state of a single Handle call.
type turn struct {
	*Engine
	tx       *leads.Tx
	in       Inbound
	consumed bool
	visits   map[string]int
	path     []string
	outgoing []domain.HistoryEntry
}

func (t *turn) run(ctx context.Context) (*Response, error) {
	lead := t.tx.Lead()
	startStep := lead.CurrentStepID
	created := !t.tx.Existed()

	t.tx.AppendEntry(domain.HistoryEntry{
		Direction: domain.DirectionIn,
		Text:      t.in.Text,
		Timestamp: t.in.Timestamp,
		StepID:    startStep,
	})

	// Only an existing lead answers the step it was waiting on. The first
	// message of a new lead just opens the conversation.
	t.consumed = created

	if t.def.IsTerminal(startStep) {
		if completed := t.def.Prompts().Completed; completed != "" {
			t.say(startStep, flow.Interpolate(completed, t.vars()), "")
		}
		return t.response(StatusCompleted, "", created), nil
	}

	for {
		id := lead.CurrentStepID
		if t.def.IsTerminal(id) {
			return t.response(StatusCompleted, "", created), nil
		}

		step, ok := t.def.Step(id)
		if !ok {
			return nil, &domain.InvalidStateError{LeadID: lead.ID, StepID: id}
		}

		t.visits[id]++
		t.path = append(t.path, id)
		if t.visits[id] > t.maxVisits {
			return nil, &domain.FlowCycleError{StepID: id, Path: t.path}
		}
		t.emitStepEnter(ctx, lead.ID, step)

		switch step.Kind {
		case domain.KindMessage:
			if step.Content != "" {
				t.say(step.ID, flow.Interpolate(step.Content, t.vars()), "")
			}
			t.advance(ctx, lead.ID, step, step.Next)

		case domain.KindChoice:
			if t.consumed || id != startStep {
				t.say(step.ID, flow.RenderChoice(step, t.vars()), "")
				return t.response(StatusOK, "", created), nil
			}

			t.consumed = true
			switch outcome := flow.Resolve(step, t.in.Text).(type) {
			case flow.Advance:
				t.tx.RecordAnswer(step.ID, outcome.Value)
				t.advance(ctx, lead.ID, step, outcome.Next)
				clear(t.visits)
				t.path = t.path[:0]
			case flow.Invalid:
				t.say(step.ID, t.corrective(step, outcome.Reason), "")
				return t.response(StatusInvalid, outcome.Reason, created), nil
			}

		case domain.KindAction:
			if step.Content != "" {
				t.say(step.ID, flow.Interpolate(step.Content, t.vars()), "")
			}
			resp, err := t.dispatch(ctx, lead, step)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err != nil {
				t.logger.Warn("action failed, using fallback",
					"lead_id", lead.ID,
					"step_id", step.ID,
					"action", step.Action,
					"error", err,
				)
				resp = domain.ActionResponse{Text: flow.Interpolate(t.fallbackText(step), t.vars())}
			}
			if resp.Text != "" || resp.Artifact != "" {
				t.say(step.ID, resp.Text, resp.Artifact)
			}
			if resp.Value != "" {
				t.tx.RecordAnswer(step.ID, resp.Value)
			}
			t.advance(ctx, lead.ID, step, step.Next)
		}
	}
}

func (t *turn) advance(ctx context.Context, leadID string, step domain.Step, next string) {
	t.emitStepLeave(ctx, leadID, step)
	t.tx.SetStep(next)
}

func (t *turn) say(stepID, text, artifact string) {
	entry := domain.HistoryEntry{
		Direction: domain.DirectionOut,
		Text:      text,
		Timestamp: t.clock(),
		StepID:    stepID,
		Artifact:  artifact,
	}
	t.tx.AppendEntry(entry)
	t.outgoing = append(t.outgoing, entry)
}

func (t *turn) vars() map[string]string {
	return flow.Vars(t.tx.Lead(), t.presenter.Vars())
}

func (t *turn) corrective(step domain.Step, reason flow.InvalidReason) string {
	prompts := t.def.Prompts()
	prompt := prompts.InvalidOption
	if reason == flow.ReasonNonNumeric {
		prompt = prompts.NonNumeric
	}
	vars := t.vars()
	return flow.Interpolate(prompt, vars) + "\n\n" + flow.RenderChoice(step, vars)
}

func (t *turn) response(status Status, reason flow.InvalidReason, created bool) *Response {
	return &Response{
		Outgoing: t.outgoing,
		Status:   status,
		Reason:   reason,
		Created:  created,
	}
}

type dispatchResult struct {
	resp domain.ActionResponse
	err  error
}

// dispatch calls the capability of step, waiting at most actionTimeout.
// The call runs on its own goroutine so a handler ignoring ctx cannot hold the turn.
func (t *turn) dispatch(ctx context.Context, lead *domain.Lead, step domain.Step) (domain.ActionResponse, error) {
	req := domain.ActionRequest{
		Name:   step.Action,
		StepID: step.ID,
		Lead:   lead.Clone(),
		Params: step.Params,
	}
	t.emitActionCall(ctx, lead.ID, step)
	start := t.clock()

	if t.dispatcher == nil {
		t.emitActionReturn(ctx, lead.ID, step, 0, ErrNoDispatcher)
		return domain.ActionResponse{}, ErrNoDispatcher
	}

	callCtx, cancel := context.WithTimeout(ctx, t.actionTimeout)
	defer cancel()

	done := make(chan dispatchResult, 1)
	go func() {
		resp, err := t.dispatcher.Dispatch(callCtx, req)
		done <- dispatchResult{resp: resp, err: err}
	}()

	var res dispatchResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		res.err = callCtx.Err()
	}

	t.emitActionReturn(ctx, lead.ID, step, t.clock().Sub(start), res.err)
	return res.resp, res.err
}
