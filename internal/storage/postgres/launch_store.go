package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"anubis-watch/internal/domain"
	"anubis-watch/internal/storage"
)

// LaunchStore implements storage.LaunchStore using PostgreSQL. The
// mint primary key makes Insert the atomic dedup point for ingestion.
type LaunchStore struct {
	pool *Pool
}

// NewLaunchStore creates a new LaunchStore.
func NewLaunchStore(pool *Pool) *LaunchStore {
	return &LaunchStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LaunchStore = (*LaunchStore)(nil)

// Insert adds a new launch record. Returns ErrDuplicateKey if the mint
// is already recorded.
func (s *LaunchStore) Insert(ctx context.Context, e *domain.LaunchEvent) error {
	query := `
		INSERT INTO token_launches (
			mint, creator_wallet, platform, launch_time,
			initial_liquidity, signature, bundled
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		e.Mint,
		e.CreatorWallet,
		string(e.Platform),
		e.LaunchTime,
		e.InitialLiquidity,
		e.Signature,
		e.BundledSubmission,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert launch: %w", err)
	}
	return nil
}

// GetByMint retrieves the launch record for a mint. Returns ErrNotFound
// if not exists.
func (s *LaunchStore) GetByMint(ctx context.Context, mint string) (*domain.LaunchRecord, error) {
	query := launchSelect + ` WHERE mint = $1`

	row := s.pool.QueryRow(ctx, query, mint)
	rec, err := scanLaunch(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get launch by mint: %w", err)
	}
	return rec, nil
}

// GetByWallet retrieves a wallet's launches at or after since, ordered
// by launch time ascending.
func (s *LaunchStore) GetByWallet(ctx context.Context, wallet string, since time.Time) ([]*domain.LaunchRecord, error) {
	query := launchSelect + `
		WHERE creator_wallet = $1 AND launch_time >= $2
		ORDER BY launch_time ASC, mint ASC
	`

	rows, err := s.pool.Query(ctx, query, wallet, since)
	if err != nil {
		return nil, fmt.Errorf("get launches by wallet: %w", err)
	}
	defer rows.Close()

	var records []*domain.LaunchRecord
	for rows.Next() {
		rec, err := scanLaunch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan launch row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate launch rows: %w", err)
	}
	return records, nil
}

// MarkResolved applies an outcome resolution exactly once. Returns
// ErrNotFound for an unknown mint and ErrDuplicateKey when already
// resolved.
func (s *LaunchStore) MarkResolved(ctx context.Context, mint string, successful, rugged, graduated bool) error {
	query := `
		UPDATE token_launches
		SET resolved = TRUE, successful = $2, rugged = $3, graduated = $4
		WHERE mint = $1 AND resolved = FALSE
	`

	tag, err := s.pool.Exec(ctx, query, mint, successful, rugged, graduated)
	if err != nil {
		return fmt.Errorf("mark launch resolved: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing updated: distinguish unknown mint from already resolved.
	var resolved bool
	err = s.pool.QueryRow(ctx, `SELECT resolved FROM token_launches WHERE mint = $1`, mint).Scan(&resolved)
	if err != nil {
		if isNotFoundError(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("check launch resolution: %w", err)
	}
	return storage.ErrDuplicateKey
}

const launchSelect = `
	SELECT mint, creator_wallet, platform, launch_time, initial_liquidity,
	       signature, bundled, resolved, successful, rugged, graduated
	FROM token_launches
`

// scanLaunch scans a single row into a LaunchRecord.
func scanLaunch(row pgx.Row) (*domain.LaunchRecord, error) {
	var rec domain.LaunchRecord
	var platform string

	err := row.Scan(
		&rec.Event.Mint,
		&rec.Event.CreatorWallet,
		&platform,
		&rec.Event.LaunchTime,
		&rec.Event.InitialLiquidity,
		&rec.Event.Signature,
		&rec.Event.BundledSubmission,
		&rec.Resolved,
		&rec.Successful,
		&rec.Rugged,
		&rec.Graduated,
	)
	if err != nil {
		return nil, err
	}

	rec.Event.Platform = domain.Platform(platform)
	rec.Event.LaunchTime = rec.Event.LaunchTime.UTC()
	return &rec, nil
}
