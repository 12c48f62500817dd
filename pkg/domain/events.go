package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter    EventType = "step_enter"
	EventStepLeave    EventType = "step_leave"
	EventActionCall   EventType = "action_call"
	EventActionReturn EventType = "action_return"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	LeadID    string    `json:"lead_id"`
}

// StepEvent represents entry or exit from a step.
type StepEvent struct {
	EventBase
	StepID string   `json:"step_id"`
	Kind   StepKind `json:"kind"`
}

// ActionEvent represents a capability invocation.
type ActionEvent struct {
	EventBase
	StepID   string        `json:"step_id"`
	Action   string        `json:"action"`
	Duration time.Duration `json:"duration,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStepEnter    func(context.Context, *StepEvent)
	OnStepLeave    func(context.Context, *StepEvent)
	OnActionCall   func(context.Context, *ActionEvent)
	OnActionReturn func(context.Context, *ActionEvent)
}

// ComposeHooks merges several hook sets; each callback fans out in order.
func ComposeHooks(sets ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, s := range sets {
		out.OnStepEnter = chainStep(out.OnStepEnter, s.OnStepEnter)
		out.OnStepLeave = chainStep(out.OnStepLeave, s.OnStepLeave)
		out.OnActionCall = chainAction(out.OnActionCall, s.OnActionCall)
		out.OnActionReturn = chainAction(out.OnActionReturn, s.OnActionReturn)
	}
	return out
}

func chainStep(a, b func(context.Context, *StepEvent)) func(context.Context, *StepEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *StepEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainAction(a, b func(context.Context, *ActionEvent)) func(context.Context, *ActionEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *ActionEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
