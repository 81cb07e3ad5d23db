package postgres

import (
	"context"
	"fmt"

	"anubis-watch/internal/domain"
	"anubis-watch/internal/storage"
)

// AlertStore implements storage.AlertStore using PostgreSQL. The
// UNIQUE (wallet, mint) constraint plus ON CONFLICT DO NOTHING gives
// TryInsert its exactly-one-winner semantics under concurrency.
type AlertStore struct {
	pool *Pool
}

// NewAlertStore creates a new AlertStore.
func NewAlertStore(pool *Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AlertStore = (*AlertStore)(nil)

// TryInsert persists the alert unless one already exists for the
// (wallet, mint) pair. Returns false, nil on duplicate.
func (s *AlertStore) TryInsert(ctx context.Context, a *domain.AlertEvent) (bool, error) {
	query := `
		INSERT INTO alert_events (wallet, mint, level, reasons, score, tier, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (wallet, mint) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query,
		a.Wallet,
		a.Mint,
		string(a.Level),
		a.Reasons,
		a.Score,
		string(a.Tier),
		a.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert alert: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByWallet retrieves a wallet's alerts ordered by creation time
// ascending.
func (s *AlertStore) GetByWallet(ctx context.Context, wallet string) ([]*domain.AlertEvent, error) {
	query := `
		SELECT wallet, mint, level, reasons, score, tier, created_at
		FROM alert_events
		WHERE wallet = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("get alerts by wallet: %w", err)
	}
	defer rows.Close()

	var alerts []*domain.AlertEvent
	for rows.Next() {
		var a domain.AlertEvent
		var level, tier string

		err := rows.Scan(&a.Wallet, &a.Mint, &level, &a.Reasons, &a.Score, &tier, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}

		a.Level = domain.AlertLevel(level)
		a.Tier = domain.DeveloperTier(tier)
		a.CreatedAt = a.CreatedAt.UTC()
		alerts = append(alerts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert rows: %w", err)
	}
	return alerts, nil
}
