package actions_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/leadflow/pkg/actions"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qualifiedLead() *domain.Lead {
	lead := domain.NewLead("lead-1", "5511999990000", "Ana", "result", testNow)
	lead.Answers["ask_profile"] = "casal"
	lead.Answers["ask_age"] = "30-49"
	lead.Answers["ask_coparticipation"] = "sem"
	return lead
}

func TestRecommender_BuildPrompt(t *testing.T) {
	r := actions.NewRecommender(&stubLLM{}, actions.WithPresenter(domain.Presenter{Name: "Joana", Years: 12}))

	p, err := r.BuildPrompt(qualifiedLead())
	require.NoError(t, err)

	assert.Contains(t, p.User, "Nome do lead: Ana")
	assert.Contains(t, p.User, "- ask_age: 30-49")
	assert.Contains(t, p.User, "- ask_profile: casal")
	assert.Contains(t, p.User, "Fale em nome de Joana.")
	assert.Less(t, strings.Index(p.User, "ask_age"), strings.Index(p.User, "ask_profile"), "answers are sorted by step")
	assert.Equal(t, actions.SystemPrompt(actions.VerticalHealth), p.System)
}

func TestRecommender_CustomTemplate(t *testing.T) {
	tmpl, err := actions.ParsePromptTemplate(`{{.Name}} wants {{range .Answers}}{{.Value}} {{end}}`)
	require.NoError(t, err)
	llm := &stubLLM{text: "ok"}
	r := actions.NewRecommender(llm, actions.WithPromptTemplate(tmpl), actions.WithVertical(actions.VerticalAutomotive))

	_, err = r.GenerateRecommendation(context.Background(), qualifiedLead())
	require.NoError(t, err)
	require.Len(t, llm.prompts, 1)
	assert.Equal(t, "Ana wants 30-49 sem casal ", llm.prompts[0].User)
	assert.Equal(t, actions.SystemPrompt(actions.VerticalAutomotive), llm.prompts[0].System)
}

func TestRecommender_Generate(t *testing.T) {
	tests := []struct {
		name string
		llm  *stubLLM
		want string
	}{
		{"compliant text", &stubLLM{text: "  Recomendo um plano nacional sem coparticipação.  "}, "Recomendo um plano nacional sem coparticipação."},
		{"pricing rejected", &stubLLM{text: "Plano casal por R$ 500."}, actions.FallbackTemplate(actions.VerticalHealth)},
		{"illegal claim rejected", &stubLLM{text: "Cobertura imediata!"}, actions.FallbackTemplate(actions.VerticalHealth)},
		{"provider failure", &stubLLM{err: errors.New("down")}, actions.FallbackTemplate(actions.VerticalHealth)},
		{"empty output", &stubLLM{text: "   "}, actions.FallbackTemplate(actions.VerticalHealth)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := actions.NewRecommender(tt.llm)
			got, err := r.GenerateRecommendation(context.Background(), qualifiedLead())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecommender_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := actions.NewRecommender(&stubLLM{err: context.Canceled})

	_, err := r.GenerateRecommendation(ctx, qualifiedLead())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecommendationHandler_NoLead(t *testing.T) {
	h := actions.RecommendationHandler(stubRecommender{text: "x"})
	_, err := h(context.Background(), domain.ActionRequest{Name: domain.ActionGenerateRecommendation})
	assert.ErrorIs(t, err, actions.ErrInvalidParams)
}
