package memory

import (
	"context"
	"sync"

	"github.com/aretw0/foldtable/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Snapshot),
	}
}

// Save persists a deep copy of the snapshot, similar to serialization.
func (s *Store) Save(ctx context.Context, streamID string, snap *domain.Snapshot) error {
	copied := snap.Copy()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[streamID] = copied
	return nil
}

// Load retrieves a copy of the snapshot so callers can't mutate the store by pointer.
func (s *Store) Load(ctx context.Context, streamID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[streamID]
	if !ok {
		return nil, domain.ErrStreamNotFound
	}
	return snap.Copy(), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, streamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, streamID)
	return nil
}

// List returns stored stream IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	streams := make([]string, 0, len(s.data))
	for id := range s.data {
		streams = append(streams, id)
	}
	return streams, nil
}
