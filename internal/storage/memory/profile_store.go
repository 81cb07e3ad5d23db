package memory

import (
	"context"
	"sort"
	"sync"

	"anubis-watch/internal/domain"
	"anubis-watch/internal/storage"
)

// ProfileStore is an in-memory implementation of storage.ProfileStore.
type ProfileStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WalletProfile // keyed by wallet address
}

// NewProfileStore creates a new in-memory profile store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		data: make(map[string]*domain.WalletProfile),
	}
}

// Compile-time interface check.
var _ storage.ProfileStore = (*ProfileStore)(nil)

// Get retrieves a profile by wallet. Returns ErrNotFound if not exists.
func (s *ProfileStore) Get(_ context.Context, wallet string) (*domain.WalletProfile, error) {
	if wallet == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[wallet]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return p.Clone(), nil
}

// Save upserts a profile. A copy is stored to prevent external mutation.
func (s *ProfileStore) Save(_ context.Context, p *domain.WalletProfile) error {
	if p == nil || p.Wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[p.Wallet] = p.Clone()
	return nil
}

// Wallets returns all known wallet addresses, sorted ascending.
func (s *ProfileStore) Wallets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wallets := make([]string, 0, len(s.data))
	for w := range s.data {
		wallets = append(wallets, w)
	}
	sort.Strings(wallets)
	return wallets, nil
}

// TopByScore returns up to limit profiles ordered by cached anubis score
// descending. Unscored profiles sort last; ties break by wallet address
// for deterministic output.
func (s *ProfileStore) TopByScore(_ context.Context, limit int) ([]*domain.WalletProfile, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]*domain.WalletProfile, 0, len(s.data))
	for _, p := range s.data {
		profiles = append(profiles, p.Clone())
	}

	sort.Slice(profiles, func(i, j int) bool {
		si, sj := cachedScore(profiles[i]), cachedScore(profiles[j])
		if si != sj {
			return si > sj
		}
		return profiles[i].Wallet < profiles[j].Wallet
	})

	if len(profiles) > limit {
		profiles = profiles[:limit]
	}
	return profiles, nil
}

func cachedScore(p *domain.WalletProfile) float64 {
	if p.LatestScore == nil {
		return -1
	}
	return p.LatestScore.AnubisScore
}
