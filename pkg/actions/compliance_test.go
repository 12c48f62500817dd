package actions_test

import (
	"testing"

	"github.com/aretw0/leadflow/pkg/actions"
	"github.com/stretchr/testify/assert"
)

func TestViolations(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"clean", "Recomendo um plano com rede regional e coparticipação.", 0},
		{"currency", "O plano custa R$ 350,00 por mês.", 1},
		{"reais", "Fica em torno de 400 reais.", 1},
		{"monthly fee with number", "A mensalidade é de 280 para o casal.", 1},
		{"zero waiting period", "Esse plano tem zero carência!", 1},
		{"immediate coverage", "Cobertura imediata para todos.", 1},
		{"guaranteed approval", "Aprovação garantida em 24h.", 1},
		{"asks cpf", "Me passa seu CPF para a cotação?", 1},
		{"asks medical history", "Qual seu histórico médico?", 1},
		{"pricing counted once", "R$ 100 ou 200 reais", 1},
		{"several rules", "Sem carência e só preciso do seu CPF e cartão de crédito.", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := actions.Violations(tt.text)
			assert.Len(t, got, tt.want, "violations: %v", got)
			assert.Equal(t, tt.want == 0, actions.IsCompliant(tt.text))
		})
	}
}

func TestFallbackTemplate(t *testing.T) {
	assert.Contains(t, actions.FallbackTemplate(actions.VerticalHealth), "plano de saúde")
	assert.Contains(t, actions.FallbackTemplate(actions.VerticalRealEstate), "imóvel")
	assert.Equal(t, actions.FallbackTemplate(actions.VerticalHealth), actions.FallbackTemplate("unknown"))
	assert.True(t, actions.IsCompliant(actions.FallbackTemplate(actions.VerticalHealth)))
}
