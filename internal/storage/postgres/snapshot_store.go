package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"anubis-watch/internal/domain"
	"anubis-watch/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
// Snapshots are append-only; the serial id breaks ties between
// snapshots sharing a timestamp.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Append adds a snapshot.
func (s *SnapshotStore) Append(ctx context.Context, snap *domain.ScoreSnapshot) error {
	components, err := json.Marshal(snap.Components)
	if err != nil {
		return fmt.Errorf("encode components: %w", err)
	}
	flags, err := json.Marshal(snap.Flags)
	if err != nil {
		return fmt.Errorf("encode flags: %w", err)
	}

	query := `
		INSERT INTO score_snapshots (
			wallet, anubis_score, risk_rating, developer_tier,
			components, alert_priority, flags, scored_at, scoring_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.pool.Exec(ctx, query,
		snap.Wallet,
		snap.AnubisScore,
		string(snap.RiskRating),
		string(snap.DeveloperTier),
		components,
		snap.AlertPriority,
		flags,
		snap.ScoredAt,
		snap.ScoringVersion,
	)
	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	return nil
}

// GetLatest retrieves the most recent snapshot for a wallet. Returns
// ErrNotFound if the wallet was never scored.
func (s *SnapshotStore) GetLatest(ctx context.Context, wallet string) (*domain.ScoreSnapshot, error) {
	query := `
		SELECT wallet, anubis_score, risk_rating, developer_tier,
		       components, alert_priority, flags, scored_at, scoring_version
		FROM score_snapshots
		WHERE wallet = $1
		ORDER BY scored_at DESC, id DESC
		LIMIT 1
	`

	var snap domain.ScoreSnapshot
	var risk, tier string
	var components, flags []byte

	err := s.pool.QueryRow(ctx, query, wallet).Scan(
		&snap.Wallet,
		&snap.AnubisScore,
		&risk,
		&tier,
		&components,
		&snap.AlertPriority,
		&flags,
		&snap.ScoredAt,
		&snap.ScoringVersion,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}

	if err := json.Unmarshal(components, &snap.Components); err != nil {
		return nil, fmt.Errorf("decode components: %w", err)
	}
	if err := json.Unmarshal(flags, &snap.Flags); err != nil {
		return nil, fmt.Errorf("decode flags: %w", err)
	}
	snap.RiskRating = domain.RiskRating(risk)
	snap.DeveloperTier = domain.DeveloperTier(tier)
	snap.ScoredAt = snap.ScoredAt.UTC()
	return &snap, nil
}
