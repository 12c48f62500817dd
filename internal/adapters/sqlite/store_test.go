package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/leadflow/internal/adapters/sqlite"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.LeadStore = (*sqlite.Store)(nil)

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	defer store.Close()

	ports.RunLeadStoreContract(t, store)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "leads.db")
	ctx := context.Background()

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	lead := domain.NewLead("id-1", "5511977776666", "Ana", "start", time.Now())
	lead.CurrentStepID = "ask_age"
	lead.Answers["ask_profile"] = "casal"
	require.NoError(t, store.Save(ctx, lead))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "5511977776666")
	require.NoError(t, err)
	assert.Equal(t, "ask_age", loaded.CurrentStepID)
	assert.Equal(t, map[string]string{"ask_profile": "casal"}, loaded.Answers)
}

func TestSQLiteStore_ListOrder(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	base := time.Now()
	require.NoError(t, store.Save(ctx, domain.NewLead("b", "second", "B", "start", base.Add(time.Second))))
	require.NoError(t, store.Save(ctx, domain.NewLead("a", "first", "A", "start", base)))

	leads, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "first", leads[0].ChannelID)
	assert.Equal(t, "second", leads[1].ChannelID)
}
