package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"anubis-watch/internal/domain"
	"anubis-watch/internal/storage"
)

// LaunchStore is an in-memory implementation of storage.LaunchStore.
type LaunchStore struct {
	mu       sync.RWMutex
	byMint   map[string]*domain.LaunchRecord
	byWallet map[string][]string // wallet -> mints, insertion order
}

// NewLaunchStore creates a new in-memory launch store.
func NewLaunchStore() *LaunchStore {
	return &LaunchStore{
		byMint:   make(map[string]*domain.LaunchRecord),
		byWallet: make(map[string][]string),
	}
}

// Compile-time interface check.
var _ storage.LaunchStore = (*LaunchStore)(nil)

// Insert adds a new launch record. Returns ErrDuplicateKey if the mint
// is already recorded, regardless of which wallet the duplicate names.
func (s *LaunchStore) Insert(_ context.Context, e *domain.LaunchEvent) error {
	if e == nil || e.Mint == "" || e.CreatorWallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byMint[e.Mint]; exists {
		return storage.ErrDuplicateKey
	}

	rec := &domain.LaunchRecord{Event: *e}
	s.byMint[e.Mint] = rec
	s.byWallet[e.CreatorWallet] = append(s.byWallet[e.CreatorWallet], e.Mint)
	return nil
}

// GetByMint retrieves the launch record for a mint. Returns ErrNotFound
// if not exists.
func (s *LaunchStore) GetByMint(_ context.Context, mint string) (*domain.LaunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.byMint[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}
	recCopy := *rec
	return &recCopy, nil
}

// GetByWallet retrieves a wallet's launch records with launch time at or
// after since, ordered by launch time ascending.
func (s *LaunchStore) GetByWallet(_ context.Context, wallet string, since time.Time) ([]*domain.LaunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LaunchRecord
	for _, mint := range s.byWallet[wallet] {
		rec := s.byMint[mint]
		if rec.Event.LaunchTime.Before(since) {
			continue
		}
		recCopy := *rec
		result = append(result, &recCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		ti, tj := result[i].Event.LaunchTime, result[j].Event.LaunchTime
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return result[i].Event.Mint < result[j].Event.Mint
	})

	return result, nil
}

// MarkResolved applies an outcome resolution to a mint exactly once.
func (s *LaunchStore) MarkResolved(_ context.Context, mint string, successful, rugged, graduated bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.byMint[mint]
	if !exists {
		return storage.ErrNotFound
	}
	if rec.Resolved {
		return storage.ErrDuplicateKey
	}

	rec.Resolved = true
	rec.Successful = successful
	rec.Rugged = rugged
	rec.Graduated = graduated
	return nil
}
