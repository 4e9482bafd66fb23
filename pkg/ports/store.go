package ports

import (
	"context"

	"github.com/aretw0/weft/pkg/domain"
)

// SnapshotStore persists node state snapshots keyed by node guid.
// This lets a restarted runtime resume nodes with the state they had.
type SnapshotStore interface {
	// Save persists the snapshot for a node.
	Save(ctx context.Context, guid string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a node.
	// Returns domain.ErrSnapshotNotFound if none exists.
	Load(ctx context.Context, guid string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a node. Deleting an unknown guid is not an error.
	Delete(ctx context.Context, guid string) error

	// List returns the guids with a stored snapshot.
	List(ctx context.Context) ([]string, error)
}
