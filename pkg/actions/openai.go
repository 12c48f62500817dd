package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	oaioption "github.com/openai/openai-go/option"
)

// DefaultOpenAIModel targets Groq's OpenAI-compatible endpoint.
const DefaultOpenAIModel = "llama-3.1-70b-versatile"

// ChatCompletions is the subset of the OpenAI SDK used by OpenAIClient.
type ChatCompletions interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...oaioption.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIClient implements LLMClient against any OpenAI-compatible chat API.
type OpenAIClient struct {
	completions ChatCompletions
	model       string
}

// NewOpenAIClient builds a client. An empty baseURL uses the SDK default.
func NewOpenAIClient(apiKey, baseURL, model string) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("actions: openai api key is required")
	}
	opts := []oaioption.RequestOption{oaioption.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, oaioption.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return NewOpenAIClientWith(&client.Chat.Completions, model), nil
}

// NewOpenAIClientWith wraps an existing completions service.
func NewOpenAIClientWith(completions ChatCompletions, model string) *OpenAIClient {
	if strings.TrimSpace(model) == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIClient{completions: completions, model: model}
}

// Complete sends p as a system + user chat exchange.
func (c *OpenAIClient) Complete(ctx context.Context, p Prompt) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if strings.TrimSpace(p.System) != "" {
		messages = append(messages, openai.SystemMessage(p.System))
	}
	messages = append(messages, openai.UserMessage(p.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	}
	if p.Temperature > 0 {
		params.Temperature = openai.Float(float64(p.Temperature))
	}
	if p.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.MaxTokens))
	}

	resp, err := c.completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("actions: openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("actions: openai returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("actions: openai returned empty content")
	}
	return text, nil
}
