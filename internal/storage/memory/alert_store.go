package memory

import (
	"context"
	"sort"
	"sync"

	"anubis-watch/internal/domain"
	"anubis-watch/internal/storage"
)

// AlertStore is an in-memory implementation of storage.AlertStore. The
// (wallet, mint) uniqueness check and the insert happen under one lock,
// giving the same atomicity a relational unique constraint provides.
type AlertStore struct {
	mu   sync.Mutex
	seen map[alertKey]struct{}
	data map[string][]*domain.AlertEvent // keyed by wallet
}

type alertKey struct {
	wallet string
	mint   string
}

// NewAlertStore creates a new in-memory alert store.
func NewAlertStore() *AlertStore {
	return &AlertStore{
		seen: make(map[alertKey]struct{}),
		data: make(map[string][]*domain.AlertEvent),
	}
}

// Compile-time interface check.
var _ storage.AlertStore = (*AlertStore)(nil)

// TryInsert persists the alert unless one already exists for the
// (wallet, mint) pair. Returns false, nil on duplicate.
func (s *AlertStore) TryInsert(_ context.Context, a *domain.AlertEvent) (bool, error) {
	if a == nil || a.Wallet == "" || a.Mint == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := alertKey{wallet: a.Wallet, mint: a.Mint}
	if _, exists := s.seen[key]; exists {
		return false, nil
	}

	s.seen[key] = struct{}{}
	alertCopy := *a
	alertCopy.Reasons = append([]string(nil), a.Reasons...)
	s.data[a.Wallet] = append(s.data[a.Wallet], &alertCopy)
	return true, nil
}

// GetByWallet retrieves a wallet's alerts ordered by creation time
// ascending.
func (s *AlertStore) GetByWallet(_ context.Context, wallet string) ([]*domain.AlertEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alerts := s.data[wallet]
	result := make([]*domain.AlertEvent, len(alerts))
	for i, a := range alerts {
		alertCopy := *a
		alertCopy.Reasons = append([]string(nil), a.Reasons...)
		result[i] = &alertCopy
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}
