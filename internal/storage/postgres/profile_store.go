package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"anubis-watch/internal/domain"
	"anubis-watch/internal/storage"
)

// ProfileStore implements storage.ProfileStore using PostgreSQL.
// Profiles are written whole as JSONB; the cached composite score is
// lifted into its own column so the leaderboard query stays indexable.
type ProfileStore struct {
	pool *Pool
}

// NewProfileStore creates a new ProfileStore.
func NewProfileStore(pool *Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProfileStore = (*ProfileStore)(nil)

// Get retrieves a profile by wallet. Returns ErrNotFound if not exists.
func (s *ProfileStore) Get(ctx context.Context, wallet string) (*domain.WalletProfile, error) {
	query := `
		SELECT profile
		FROM wallet_profiles
		WHERE wallet = $1
	`

	var raw []byte
	if err := s.pool.QueryRow(ctx, query, wallet).Scan(&raw); err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var p domain.WalletProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", wallet, err)
	}
	return &p, nil
}

// Save upserts a profile.
func (s *ProfileStore) Save(ctx context.Context, p *domain.WalletProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", p.Wallet, err)
	}

	var cachedScore *float64
	if p.LatestScore != nil {
		cachedScore = &p.LatestScore.AnubisScore
	}

	query := `
		INSERT INTO wallet_profiles (wallet, profile, cached_score, first_seen, last_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (wallet) DO UPDATE SET
			profile = EXCLUDED.profile,
			cached_score = EXCLUDED.cached_score,
			last_active = EXCLUDED.last_active,
			updated_at = NOW()
	`

	_, err = s.pool.Exec(ctx, query, p.Wallet, raw, cachedScore, p.FirstSeen, p.LastActive)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Wallets returns all known wallet addresses, sorted ascending.
func (s *ProfileStore) Wallets(ctx context.Context) ([]string, error) {
	query := `SELECT wallet FROM wallet_profiles ORDER BY wallet ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}
	return wallets, nil
}

// TopByScore returns up to limit profiles ordered by cached score
// descending. Unscored profiles sort last.
func (s *ProfileStore) TopByScore(ctx context.Context, limit int) ([]*domain.WalletProfile, error) {
	query := `
		SELECT profile
		FROM wallet_profiles
		ORDER BY cached_score DESC NULLS LAST, wallet ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("top profiles by score: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.WalletProfile
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}
		var p domain.WalletProfile
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		profiles = append(profiles, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile rows: %w", err)
	}
	return profiles, nil
}
