package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/weft/pkg/adapters/memory"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	tests.RunSnapshotStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	snap := &domain.Snapshot{Class: "Counter", Data: map[string]any{"count": 1}}

	require.NoError(t, store.Save(ctx, "1", snap))
	snap.Data["count"] = 2

	loaded, err := store.Load(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Data["count"])
}
