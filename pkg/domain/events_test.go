package domain_test

import (
	"context"
	"testing"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestComposeHooks(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnStepEnter: func(context.Context, *domain.StepEvent) { calls = append(calls, "a.enter") },
	}
	b := domain.LifecycleHooks{
		OnStepEnter:    func(context.Context, *domain.StepEvent) { calls = append(calls, "b.enter") },
		OnActionReturn: func(context.Context, *domain.ActionEvent) { calls = append(calls, "b.return") },
	}

	hooks := domain.ComposeHooks(a, domain.LifecycleHooks{}, b)
	hooks.OnStepEnter(context.Background(), &domain.StepEvent{})
	hooks.OnActionReturn(context.Background(), &domain.ActionEvent{})

	assert.Equal(t, []string{"a.enter", "b.enter", "b.return"}, calls)
	assert.Nil(t, hooks.OnStepLeave)
	assert.Nil(t, hooks.OnActionCall)
}
