package storage

import (
	"context"
	"time"

	"anubis-watch/internal/domain"
)

// ProfileStore provides access to wallet profile storage. Save is an
// upsert; profiles are owned by the aggregator and written whole.
type ProfileStore interface {
	// Get retrieves a profile by wallet. Returns ErrNotFound if not exists.
	Get(ctx context.Context, wallet string) (*domain.WalletProfile, error)

	// Save upserts a profile.
	Save(ctx context.Context, p *domain.WalletProfile) error

	// Wallets returns all known wallet addresses, sorted ascending.
	Wallets(ctx context.Context) ([]string, error)

	// TopByScore returns up to limit profiles ordered by cached anubis
	// score descending. Profiles without a cached score sort last.
	TopByScore(ctx context.Context, limit int) ([]*domain.WalletProfile, error)
}

// LaunchStore provides access to launch records, keyed by mint. It is
// the dedup authority for launch ingestion and the event history used
// by rolling-window recomputation.
type LaunchStore interface {
	// Insert adds a new launch record. Returns ErrDuplicateKey if the
	// mint is already recorded.
	Insert(ctx context.Context, e *domain.LaunchEvent) error

	// GetByMint retrieves the launch record for a mint. Returns
	// ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.LaunchRecord, error)

	// GetByWallet retrieves a wallet's launch records with launch time
	// at or after since, ordered by launch time ascending.
	GetByWallet(ctx context.Context, wallet string, since time.Time) ([]*domain.LaunchRecord, error)

	// MarkResolved applies an outcome resolution to a mint exactly
	// once. Returns ErrNotFound if the mint is unknown and
	// ErrDuplicateKey if already resolved.
	MarkResolved(ctx context.Context, mint string, successful, rugged, graduated bool) error
}

// SnapshotStore provides access to score snapshot storage, append-only
// for audit.
type SnapshotStore interface {
	// Append adds a snapshot.
	Append(ctx context.Context, s *domain.ScoreSnapshot) error

	// GetLatest retrieves the most recent snapshot for a wallet.
	// Returns ErrNotFound if the wallet was never scored.
	GetLatest(ctx context.Context, wallet string) (*domain.ScoreSnapshot, error)
}

// AlertStore provides access to emitted alerts. TryInsert is the
// atomic conditional insert that makes alerting idempotent per
// (wallet, mint): concurrent workers racing on the same pair observe
// exactly one true return.
type AlertStore interface {
	// TryInsert persists the alert unless one already exists for the
	// (wallet, mint) pair. Returns false, nil on duplicate.
	TryInsert(ctx context.Context, a *domain.AlertEvent) (bool, error)

	// GetByWallet retrieves a wallet's alerts ordered by creation time
	// ascending.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.AlertEvent, error)
}

// SnapshotArchive is a secondary append-only sink for snapshots,
// typically columnar storage for offline analysis. Archive failures are
// non-fatal to the pipeline.
type SnapshotArchive interface {
	Append(ctx context.Context, s *domain.ScoreSnapshot) error
}
