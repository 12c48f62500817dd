package engine

import (
	"context"
	"time"

	"github.com/aretw0/leadflow/pkg/domain"
)

func (e *Engine) emitStepEnter(ctx context.Context, leadID string, step domain.Step) {
	e.logger.Debug("step enter", "lead_id", leadID, "step_id", step.ID, "kind", step.Kind)
	if e.hooks.OnStepEnter != nil {
		e.hooks.OnStepEnter(ctx, &domain.StepEvent{
			EventBase: e.eventBase(domain.EventStepEnter, leadID),
			StepID:    step.ID,
			Kind:      step.Kind,
		})
	}
}

func (e *Engine) emitStepLeave(ctx context.Context, leadID string, step domain.Step) {
	if e.hooks.OnStepLeave != nil {
		e.hooks.OnStepLeave(ctx, &domain.StepEvent{
			EventBase: e.eventBase(domain.EventStepLeave, leadID),
			StepID:    step.ID,
			Kind:      step.Kind,
		})
	}
}

func (e *Engine) emitActionCall(ctx context.Context, leadID string, step domain.Step) {
	e.logger.Debug("action call", "lead_id", leadID, "step_id", step.ID, "action", step.Action)
	if e.hooks.OnActionCall != nil {
		e.hooks.OnActionCall(ctx, &domain.ActionEvent{
			EventBase: e.eventBase(domain.EventActionCall, leadID),
			StepID:    step.ID,
			Action:    step.Action,
		})
	}
}

func (e *Engine) emitActionReturn(ctx context.Context, leadID string, step domain.Step, d time.Duration, err error) {
	e.logger.Debug("action return",
		"lead_id", leadID,
		"action", step.Action,
		"duration", d,
		"is_error", err != nil,
	)
	if e.hooks.OnActionReturn != nil {
		e.hooks.OnActionReturn(ctx, &domain.ActionEvent{
			EventBase: e.eventBase(domain.EventActionReturn, leadID),
			StepID:    step.ID,
			Action:    step.Action,
			Duration:  d,
			IsError:   err != nil,
			Err:       err,
		})
	}
}

func (e *Engine) eventBase(t domain.EventType, leadID string) domain.EventBase {
	return domain.EventBase{Timestamp: e.clock(), Type: t, LeadID: leadID}
}
