package actions

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/leadflow/internal/logging"
)

// Prompt is a single-shot completion request.
type Prompt struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int32
}

// LLMClient produces text for a prompt.
type LLMClient interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// ErrNoProvider is returned by a FallbackClient without clients.
var ErrNoProvider = errors.New("no llm provider configured")

// FallbackClient tries each client in order and returns the first success.
type FallbackClient struct {
	clients []LLMClient
	logger  *slog.Logger
}

// NewFallbackClient chains clients. Nil entries are skipped.
func NewFallbackClient(logger *slog.Logger, clients ...LLMClient) *FallbackClient {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &FallbackClient{logger: logger}
	for _, client := range clients {
		if client != nil {
			c.clients = append(c.clients, client)
		}
	}
	return c
}

// Len returns how many providers are chained.
func (c *FallbackClient) Len() int {
	return len(c.clients)
}

// Complete sends p to each provider until one succeeds.
// If every provider fails the joined errors are returned.
func (c *FallbackClient) Complete(ctx context.Context, p Prompt) (string, error) {
	if len(c.clients) == 0 {
		return "", ErrNoProvider
	}

	var errs []error
	for i, client := range c.clients {
		text, err := client.Complete(ctx, p)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback LLM succeeded after primary failure", "provider", i)
			}
			return text, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
		c.logger.Warn("LLM provider failed",
			"provider", i,
			"error", err,
			"fallback_available", i+1 < len(c.clients),
		)
	}
	return "", errors.Join(errs...)
}
