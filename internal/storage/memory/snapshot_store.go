package memory

import (
	"context"
	"sync"

	"anubis-watch/internal/domain"
	"anubis-watch/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
// Snapshots are append-only; history is retained per wallet in append
// order.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.ScoreSnapshot // keyed by wallet
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string][]*domain.ScoreSnapshot),
	}
}

// Compile-time interface checks.
var (
	_ storage.SnapshotStore   = (*SnapshotStore)(nil)
	_ storage.SnapshotArchive = (*SnapshotStore)(nil)
)

// Append adds a snapshot.
func (s *SnapshotStore) Append(_ context.Context, snap *domain.ScoreSnapshot) error {
	if snap == nil || snap.Wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapCopy := *snap
	s.data[snap.Wallet] = append(s.data[snap.Wallet], &snapCopy)
	return nil
}

// GetLatest retrieves the most recent snapshot for a wallet. Returns
// ErrNotFound if the wallet was never scored.
func (s *SnapshotStore) GetLatest(_ context.Context, wallet string) (*domain.ScoreSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[wallet]
	if len(history) == 0 {
		return nil, storage.ErrNotFound
	}
	snapCopy := *history[len(history)-1]
	return &snapCopy, nil
}

// History returns all snapshots for a wallet in append order. Used by
// tests and offline inspection.
func (s *SnapshotStore) History(wallet string) []*domain.ScoreSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[wallet]
	result := make([]*domain.ScoreSnapshot, len(history))
	for i, snap := range history {
		snapCopy := *snap
		result[i] = &snapCopy
	}
	return result
}
