package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunLeadStoreContract runs a suite of tests to verify that a LeadStore implementation
// adheres to the defined interface contract.
func RunLeadStoreContract(t *testing.T, store LeadStore) {
	ctx := context.Background()
	channelID := "contract-" + time.Now().Format("20060102150405")
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("Save and Load", func(t *testing.T) {
		lead := domain.NewLead("lead-1", channelID, "Ana", "start", now)
		lead.CurrentStepID = "ask_age"
		lead.Answers["ask_profile"] = "familia"
		lead.History = append(lead.History,
			domain.HistoryEntry{Direction: domain.DirectionIn, Text: "oi", Timestamp: now},
			domain.HistoryEntry{Direction: domain.DirectionOut, Text: "Olá!", Timestamp: now, StepID: "start", Artifact: "file://x.png"},
		)

		err := store.Save(ctx, lead)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, channelID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, lead.ID, loaded.ID)
		assert.Equal(t, lead.DisplayName, loaded.DisplayName)
		assert.Equal(t, lead.CurrentStepID, loaded.CurrentStepID)
		assert.Equal(t, lead.Answers, loaded.Answers)
		require.Len(t, loaded.History, 2)
		assert.Equal(t, "Olá!", loaded.History[1].Text)
		assert.Equal(t, "file://x.png", loaded.History[1].Artifact)
		assert.True(t, lead.CreatedAt.Equal(loaded.CreatedAt))
	})

	t.Run("Overwrite", func(t *testing.T) {
		lead, err := store.Load(ctx, channelID)
		require.NoError(t, err)
		lead.CurrentStepID = "done"
		lead.Answers["ask_age"] = "30-49"
		require.NoError(t, store.Save(ctx, lead))

		loaded, err := store.Load(ctx, channelID)
		require.NoError(t, err)
		assert.Equal(t, "done", loaded.CurrentStepID)
		assert.Equal(t, map[string]string{"ask_profile": "familia", "ask_age": "30-49"}, loaded.Answers)
	})

	t.Run("Load Isolation", func(t *testing.T) {
		loaded, err := store.Load(ctx, channelID)
		require.NoError(t, err)
		loaded.Answers["tampered"] = "yes"

		again, err := store.Load(ctx, channelID)
		require.NoError(t, err)
		assert.NotContains(t, again.Answers, "tampered")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+channelID)
		assert.ErrorIs(t, err, domain.ErrLeadNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1 := channelID + "-1"
		id2 := channelID + "-2"
		require.NoError(t, store.Save(ctx, domain.NewLead("l-1", id1, "A", "start", now)))
		require.NoError(t, store.Save(ctx, domain.NewLead("l-2", id2, "B", "start", now)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		leads, err := store.List(ctx)
		require.NoError(t, err)
		var channels []string
		for _, l := range leads {
			channels = append(channels, l.ChannelID)
		}
		assert.Contains(t, channels, id1)
		assert.Contains(t, channels, id2)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Delete(ctx, channelID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, channelID)
		assert.ErrorIs(t, err, domain.ErrLeadNotFound, "Load after Delete should return ErrLeadNotFound")

		assert.NoError(t, store.Delete(ctx, channelID), "Deleting twice is not an error")
	})
}
