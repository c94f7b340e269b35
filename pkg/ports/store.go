package ports

import (
	"context"

	"github.com/aretw0/foldtable/pkg/domain"
)

// SnapshotStore defines the interface for persisting folded stream state.
type SnapshotStore interface {
	// Save persists the snapshot for a given stream ID.
	Save(ctx context.Context, streamID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a given stream ID.
	// Returns domain.ErrStreamNotFound if the stream does not exist.
	Load(ctx context.Context, streamID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given stream ID.
	Delete(ctx context.Context, streamID string) error

	// List returns the IDs of all stored streams.
	List(ctx context.Context) ([]string, error)
}
