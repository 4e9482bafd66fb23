package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store ports.SnapshotStore) {
	t.Helper()
	ctx := context.Background()
	guid := "contract-" + time.Now().Format("20060102150405.000000")

	t.Run("Save and Load", func(t *testing.T) {
		snap := &domain.Snapshot{Class: "Counter", Data: map[string]any{"label": "x", "count": 42}}

		require.NoError(t, store.Save(ctx, guid, snap))

		loaded, err := store.Load(ctx, guid)
		require.NoError(t, err)
		assert.Equal(t, "Counter", loaded.Class)
		assert.Equal(t, "x", loaded.Data["label"])
		// JSON backends return numbers as float64.
		assert.EqualValues(t, 42, toFloat(loaded.Data["count"]))
	})

	t.Run("Save overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, guid, &domain.Snapshot{Class: "Counter", Data: map[string]any{"label": "y"}}))
		loaded, err := store.Load(ctx, guid)
		require.NoError(t, err)
		assert.Equal(t, "y", loaded.Data["label"])
		assert.NotContains(t, loaded.Data, "count")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+guid)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, guid, &domain.Snapshot{Class: "C", Data: map[string]any{}}))
		require.NoError(t, store.Delete(ctx, guid))

		_, err := store.Load(ctx, guid)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

		assert.NoError(t, store.Delete(ctx, guid), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := guid+"-1", guid+"-2"
		require.NoError(t, store.Save(ctx, id1, &domain.Snapshot{Class: "C", Data: map[string]any{}}))
		require.NoError(t, store.Save(ctx, id2, &domain.Snapshot{Class: "C", Data: map[string]any{}}))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		guids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, guids, id1)
		assert.Contains(t, guids, id2)
	})
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return -1
}
