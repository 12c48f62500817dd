package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/ports"
)

// Mask replaces every PII match in persisted transcript text.
const Mask = "***"

// DefaultPIIPatterns match e-mail addresses, CPF numbers and Brazilian phone numbers.
var DefaultPIIPatterns = []string{
	`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
	`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`,
	`(?:\+?55\s?)?\(?\d{2}\)?\s?9?\d{4}[\s\-]?\d{4}\b`,
}

type piiMiddleware struct {
	next     ports.LeadStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks matches of patterns in the
// history text of a lead before it is persisted. Answers are left untouched
// because later steps interpolate them.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.LeadStore) ports.LeadStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, lead *domain.Lead) error {
	// Clone so the caller's working copy keeps the original text.
	masked := lead.Clone()
	for i := range masked.History {
		masked.History[i].Text = m.mask(masked.History[i].Text)
	}
	return m.next.Save(ctx, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, channelID string) (*domain.Lead, error) {
	return m.next.Load(ctx, channelID)
}

func (m *piiMiddleware) Delete(ctx context.Context, channelID string) error {
	return m.next.Delete(ctx, channelID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]*domain.Lead, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) mask(text string) string {
	for _, p := range m.patterns {
		text = p.ReplaceAllString(text, Mask)
	}
	return text
}
