package actions_test

import (
	"context"
	"time"

	"github.com/aretw0/leadflow/pkg/actions"
	"github.com/aretw0/leadflow/pkg/domain"
)

var testNow = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

type stubRecommender struct {
	text string
	err  error
}

func (s stubRecommender) GenerateRecommendation(context.Context, *domain.Lead) (string, error) {
	return s.text, s.err
}

type stubLLM struct {
	text    string
	err     error
	prompts []actions.Prompt
}

func (s *stubLLM) Complete(_ context.Context, p actions.Prompt) (string, error) {
	s.prompts = append(s.prompts, p)
	return s.text, s.err
}
