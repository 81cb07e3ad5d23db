package clickhouse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anubis-watch/internal/domain"
	"anubis-watch/internal/storage/clickhouse"
)

func TestSnapshotArchiveAppend(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	archive := clickhouse.NewSnapshotArchive(conn)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, score := range []float64{42.5, 61.0} {
		snap := &domain.ScoreSnapshot{
			Wallet:        "walletA",
			AnubisScore:   score,
			RiskRating:    domain.RiskMedium,
			DeveloperTier: domain.TierAmateur,
			Components: domain.ComponentScores{
				Success:  55,
				Scam:     20,
				Momentum: 40,
			},
			AlertPriority:  5,
			Flags:          domain.SpecialFlags{BotLikely: true},
			ScoredAt:       base.Add(time.Duration(i) * time.Hour),
			ScoringVersion: "v2.0",
		}
		require.NoError(t, archive.Append(ctx, snap))
	}

	var count uint64
	row := conn.QueryRow(ctx, "SELECT count() FROM score_snapshots WHERE wallet = 'walletA'")
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, uint64(2), count)

	var (
		score   float64
		rating  string
		bot     bool
		version string
	)
	row = conn.QueryRow(ctx, `
		SELECT anubis_score, risk_rating, flag_bot, scoring_version
		FROM score_snapshots WHERE wallet = 'walletA'
		ORDER BY scored_at DESC LIMIT 1
	`)
	require.NoError(t, row.Scan(&score, &rating, &bot, &version))
	assert.Equal(t, 61.0, score)
	assert.Equal(t, "MEDIUM", rating)
	assert.True(t, bot)
	assert.Equal(t, "v2.0", version)
}
