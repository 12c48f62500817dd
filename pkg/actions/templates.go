package actions

// Verticals with dedicated prompts and fallback texts.
const (
	VerticalHealth     = "saude"
	VerticalRealEstate = "imoveis"
	VerticalAutomotive = "automoveis"
	VerticalFinancial  = "financeiro"
	DefaultVertical    = VerticalHealth
)

const (
	defaultMaxChars    = 500
	defaultTemperature = 0.7
)

var fallbackTemplates = map[string]string{
	VerticalHealth:     "Olá! Obrigado por entrar em contato. Vou te ajudar a encontrar um plano de saúde adequado. Prefere um plano individual, casal, família ou empresarial? Também me diga a faixa etária do titular e se prefere com ou sem coparticipação.",
	VerticalRealEstate: "Olá! Obrigado pelo contato. Para te sugerir o melhor imóvel, me conta tipo (casa/apto/comercial), bairro de interesse e faixa de orçamento aproximada.",
	VerticalAutomotive: "Olá! Vamos encontrar o veículo ideal. Qual tipo você procura (hatch, sedan, SUV) e qual a faixa de orçamento aproximada?",
	VerticalFinancial:  "Olá! Posso te ajudar com serviços financeiros. Qual seu objetivo principal (planejar finanças, investir, crédito) e valor aproximado que pretende trabalhar?",
}

// FallbackTemplate returns the canned reply for a vertical, defaulting to health plans.
func FallbackTemplate(vertical string) string {
	if t, ok := fallbackTemplates[vertical]; ok {
		return t
	}
	return fallbackTemplates[DefaultVertical]
}

var systemPrompts = map[string]string{
	VerticalHealth: `Você é um assistente virtual profissional e acolhedor.

REGRAS OBRIGATÓRIAS (COMPLIANCE):
- NUNCA mencione preços exatos de planos (proibido pela ANS)
- NUNCA peça CPF, dados médicos ou condições pré-existentes
- NUNCA prometa "zero carência" ou "cobertura imediata"
- NUNCA faça afirmações enganosas sobre cobertura

TOM E ESTILO:
- Acolhedor e empático (saúde é sensível)
- Claro e objetivo (sem jargão médico)
- Consultivo (não apenas vendedor)`,
	VerticalRealEstate: `Você é um assistente virtual profissional.
Entenda tipo de imóvel, localização, orçamento aproximado e finalidade. Seja consultivo e transparente.`,
	VerticalAutomotive: `Você é um assistente virtual profissional.
Entenda tipo de veículo, orçamento e uso. Destaque benefícios com transparência.`,
	VerticalFinancial: `Você é um assistente virtual profissional.
Entenda os objetivos financeiros, seja transparente sobre condições e nunca prometa retornos garantidos.`,
}

// SystemPrompt returns the instructions given to the model for a vertical.
func SystemPrompt(vertical string) string {
	if p, ok := systemPrompts[vertical]; ok {
		return p
	}
	return systemPrompts[DefaultVertical]
}

// DefaultPromptTemplate renders the user prompt from the collected answers.
const DefaultPromptTemplate = `CONTEXTO DA CONVERSA:
{{- if .Name}}
Nome do lead: {{.Name}}
{{- end}}

Respostas do lead:
{{- range .Answers}}
- {{.Step}}: {{.Value}}
{{- end}}

TAREFA:
1. Valide empaticamente as escolhas do lead
2. Recomende 1-2 tipos de planos realistas para esse perfil, sem marcas e sem valores exatos
3. Explique brevemente os benefícios para esse perfil
4. Termine com um próximo passo claro
{{- with .Presenter.Name}}
Fale em nome de {{.}}.
{{- end}}

RESPOSTA (máximo {{.MaxChars}} caracteres, tom acolhedor e profissional):`
