package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/weft/pkg/domain"
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

// Save copies the snapshot so later mutations by the node do not leak in.
func (s *Store) Save(ctx context.Context, guid string, snap *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[guid] = snap.Clone()
	return nil
}

func (s *Store) Load(ctx context.Context, guid string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[guid]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return snap.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, guid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, guid)
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	guids := make([]string, 0, len(s.data))
	for id := range s.data {
		guids = append(guids, id)
	}
	sort.Strings(guids)
	return guids, nil
}
