package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunStoreContract(t *testing.T, store ports.RunStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	newRecord := func(id string) *domain.RunRecord {
		state := domain.NewState()
		state.Set(domain.FieldTicketID, "T-"+id)
		state.Set(domain.FieldSolutionScore, 95)
		state.Set(domain.FieldEscalated, false)
		return &domain.RunRecord{
			ID:         id,
			TicketID:   "T-" + id,
			Status:     domain.RunCompleted,
			Path:       []string{"INTAKE", "COMPLETE"},
			State:      state,
			StartedAt:  time.Now().UTC().Truncate(time.Second),
			FinishedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		rec := newRecord(runID)

		err := store.Save(ctx, rec)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.ID, loaded.ID)
		assert.Equal(t, rec.TicketID, loaded.TicketID)
		assert.Equal(t, domain.RunCompleted, loaded.Status)
		assert.Equal(t, rec.Path, loaded.Path)

		// Integers must survive whatever encoding the backend uses.
		score, ok := loaded.State.Int(domain.FieldSolutionScore)
		assert.True(t, ok)
		assert.Equal(t, 95, score)

		escalated, ok := loaded.State.Bool(domain.FieldEscalated)
		assert.True(t, ok, "explicit false must survive persistence")
		assert.False(t, escalated)
	})

	t.Run("Load Isolation", func(t *testing.T) {
		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		loaded.State.Set("scribble", true)

		again, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.False(t, again.State.Has("scribble"), "mutating a loaded record must not change the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newRecord(runID)))

		err := store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		require.NoError(t, store.Save(ctx, newRecord(id1)))
		require.NoError(t, store.Save(ctx, newRecord(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
