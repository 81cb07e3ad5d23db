package clickhouse

import (
	"context"
	"fmt"

	"anubis-watch/internal/domain"
	"anubis-watch/internal/storage"
)

// SnapshotArchive implements storage.SnapshotArchive using ClickHouse.
// Every scoring pass lands here append-only for offline analysis; the
// MergeTree table tolerates redelivered rows, so the archive makes no
// uniqueness promises.
type SnapshotArchive struct {
	conn *Conn
}

// NewSnapshotArchive creates a new SnapshotArchive.
func NewSnapshotArchive(conn *Conn) *SnapshotArchive {
	return &SnapshotArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotArchive = (*SnapshotArchive)(nil)

// Append adds one snapshot row.
func (s *SnapshotArchive) Append(ctx context.Context, snap *domain.ScoreSnapshot) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO score_snapshots (
			wallet, scored_at, anubis_score, risk_rating, developer_tier,
			score_success, score_scam, score_time_pattern, score_velocity,
			score_network, score_momentum, score_liquidity, score_bonding,
			score_sophistication,
			alert_priority, flag_bundled, flag_bot, flag_fast_bonder,
			flag_serial_graduate, scoring_version
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare snapshot batch: %w", err)
	}

	c := snap.Components
	err = batch.Append(
		snap.Wallet,
		snap.ScoredAt,
		snap.AnubisScore,
		string(snap.RiskRating),
		string(snap.DeveloperTier),
		c.Success, c.Scam, c.TimePattern, c.Velocity,
		c.Network, c.Momentum, c.Liquidity, c.Bonding,
		c.Sophistication,
		int32(snap.AlertPriority),
		snap.Flags.BundledSubmitter,
		snap.Flags.BotLikely,
		snap.Flags.FastBonder,
		snap.Flags.SerialGraduate,
		snap.ScoringVersion,
	)
	if err != nil {
		return fmt.Errorf("append snapshot row: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send snapshot batch: %w", err)
	}
	return nil
}
