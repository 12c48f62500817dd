package middleware_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	secure := mw(underlying)
	ctx := context.Background()

	now := time.Now().UTC()
	lead := domain.NewLead("lead-1", "5511", "Ana", "start", now)
	lead.Answers["ask_email"] = "ana@example.com"
	lead.History = append(lead.History,
		domain.HistoryEntry{Direction: domain.DirectionIn, Text: "ana@example.com", Timestamp: now},
		domain.HistoryEntry{Direction: domain.DirectionIn, Text: "CPF 123.456.789-09", Timestamp: now},
		domain.HistoryEntry{Direction: domain.DirectionIn, Text: "liga no (11) 98765-4321", Timestamp: now},
		domain.HistoryEntry{Direction: domain.DirectionIn, Text: "2", Timestamp: now},
	)

	require.NoError(t, secure.Save(ctx, lead))
	assert.Equal(t, "ana@example.com", lead.History[0].Text, "caller's lead must not be modified")

	stored, err := underlying.Load(ctx, "5511")
	require.NoError(t, err)
	assert.Equal(t, "***", stored.History[0].Text)
	assert.Equal(t, "CPF ***", stored.History[1].Text)
	assert.Equal(t, "liga no ***", stored.History[2].Text)
	assert.Equal(t, "2", stored.History[3].Text, "menu choices are not PII")
	assert.Equal(t, "ana@example.com", stored.Answers["ask_email"], "answers are kept for interpolation")
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.ErrorContains(t, err, "invalid pii pattern")
}

func TestChain_Order(t *testing.T) {
	underlying := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{`secret`})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(underlying, pii, enc)
	ctx := context.Background()

	now := time.Now().UTC()
	lead := domain.NewLead("lead-1", "c", "Ana", "start", now)
	lead.History = append(lead.History, domain.HistoryEntry{Direction: domain.DirectionIn, Text: "my secret", Timestamp: now})
	require.NoError(t, store.Save(ctx, lead))

	loaded, err := store.Load(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "my ***", loaded.History[0].Text, "masking happens before encryption")

	raw, err := underlying.Load(ctx, "c")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw.History[0].Text, "enc:v1:"))
}
