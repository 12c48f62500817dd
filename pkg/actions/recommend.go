package actions

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"text/template"

	"github.com/aretw0/leadflow/internal/logging"
	"github.com/aretw0/leadflow/pkg/domain"
)

// Recommender writes a plan recommendation for a lead.
type Recommender interface {
	GenerateRecommendation(ctx context.Context, lead *domain.Lead) (string, error)
}

// RecommendationHandler adapts a Recommender to a Handler.
func RecommendationHandler(r Recommender) Handler {
	return func(ctx context.Context, req domain.ActionRequest) (domain.ActionResponse, error) {
		if req.Lead == nil {
			return domain.ActionResponse{}, fmt.Errorf("%w: lead snapshot missing", ErrInvalidParams)
		}
		text, err := r.GenerateRecommendation(ctx, req.Lead)
		if err != nil {
			return domain.ActionResponse{}, err
		}
		return domain.ActionResponse{Text: text}, nil
	}
}

// LLMRecommender builds a prompt from the lead answers and asks an LLMClient.
// Provider failures and non-compliant output degrade to the vertical's
// fallback template. Only context cancellation is reported as an error.
type LLMRecommender struct {
	client      LLMClient
	tmpl        *template.Template
	vertical    string
	presenter   domain.Presenter
	maxChars    int
	temperature float32
	logger      *slog.Logger
}

// RecommenderOption configures an LLMRecommender.
type RecommenderOption func(*LLMRecommender)

// WithPromptTemplate replaces the default user prompt.
func WithPromptTemplate(t *template.Template) RecommenderOption {
	return func(r *LLMRecommender) {
		r.tmpl = t
	}
}

// WithVertical selects the business vertical (saude, imoveis, automoveis, financeiro).
func WithVertical(v string) RecommenderOption {
	return func(r *LLMRecommender) {
		r.vertical = v
	}
}

// WithPresenter sets who the recommendation speaks for.
func WithPresenter(p domain.Presenter) RecommenderOption {
	return func(r *LLMRecommender) {
		r.presenter = p
	}
}

// WithRecommenderLogger sets the logger.
func WithRecommenderLogger(logger *slog.Logger) RecommenderOption {
	return func(r *LLMRecommender) {
		r.logger = logger
	}
}

// NewRecommender creates a recommender on top of client.
func NewRecommender(client LLMClient, opts ...RecommenderOption) *LLMRecommender {
	r := &LLMRecommender{
		client:      client,
		tmpl:        template.Must(ParsePromptTemplate(DefaultPromptTemplate)),
		vertical:    DefaultVertical,
		maxChars:    defaultMaxChars,
		temperature: defaultTemperature,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ParsePromptTemplate parses a user prompt template.
func ParsePromptTemplate(text string) (*template.Template, error) {
	t, err := template.New("prompt").Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	return t, nil
}

// LoadPromptTemplate reads and parses a prompt template file.
func LoadPromptTemplate(path string) (*template.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt template: %w", err)
	}
	return ParsePromptTemplate(string(data))
}

// AnswerLine is one collected answer exposed to the prompt template.
type AnswerLine struct {
	Step  string
	Value string
}

// PromptData is the value the prompt template is executed with.
type PromptData struct {
	Name      string
	Answers   []AnswerLine
	Presenter domain.Presenter
	Vertical  string
	MaxChars  int
}

// BuildPrompt renders the prompt for lead.
func (r *LLMRecommender) BuildPrompt(lead *domain.Lead) (Prompt, error) {
	data := PromptData{
		Name:      lead.DisplayName,
		Presenter: r.presenter,
		Vertical:  r.vertical,
		MaxChars:  r.maxChars,
	}
	steps := make([]string, 0, len(lead.Answers))
	for stepID := range lead.Answers {
		steps = append(steps, stepID)
	}
	slices.Sort(steps)
	for _, stepID := range steps {
		data.Answers = append(data.Answers, AnswerLine{Step: stepID, Value: lead.Answers[stepID]})
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return Prompt{}, fmt.Errorf("failed to render prompt: %w", err)
	}
	return Prompt{
		System:      SystemPrompt(r.vertical),
		User:        buf.String(),
		Temperature: r.temperature,
		MaxTokens:   int32(r.maxChars),
	}, nil
}

// GenerateRecommendation implements Recommender.
func (r *LLMRecommender) GenerateRecommendation(ctx context.Context, lead *domain.Lead) (string, error) {
	prompt, err := r.BuildPrompt(lead)
	if err != nil {
		return "", err
	}

	text, err := r.client.Complete(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		r.logger.Warn("recommendation providers failed, using template", "lead_id", lead.ID, "error", err)
		return FallbackTemplate(r.vertical), nil
	}

	text = strings.TrimSpace(text)
	if violations := Violations(text); len(violations) > 0 {
		r.logger.Warn("recommendation rejected by compliance filter",
			"lead_id", lead.ID,
			"violations", violations,
		)
		return FallbackTemplate(r.vertical), nil
	}
	if text == "" {
		return FallbackTemplate(r.vertical), nil
	}
	return text, nil
}
