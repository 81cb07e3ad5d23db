package aggregator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anubis-watch/internal/config"
	"anubis-watch/internal/domain"
	"anubis-watch/internal/storage"
	"anubis-watch/internal/storage/memory"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testAggregator(t *testing.T) (*Aggregator, *memory.ProfileStore, *memory.LaunchStore) {
	t.Helper()
	profiles := memory.NewProfileStore()
	launches := memory.NewLaunchStore()
	agg := New(Options{
		Profiles: profiles,
		Launches: launches,
		Config:   config.DefaultConfig.Aggregator,
		Now:      func() time.Time { return testNow },
	})
	return agg, profiles, launches
}

func launch(mint, wallet string, at time.Time) *domain.LaunchEvent {
	return &domain.LaunchEvent{
		Mint:             mint,
		CreatorWallet:    wallet,
		Platform:         domain.PlatformPumpFun,
		LaunchTime:       at,
		InitialLiquidity: 2,
		Signature:        "sig-" + mint,
	}
}

func TestIngestLaunchCounters(t *testing.T) {
	agg, _, _ := testAggregator(t)
	ctx := context.Background()

	at := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC) // Sunday
	ev := launch("mint1", "walletA", at)
	ev.Platform = domain.PlatformLaunchLab
	ev.InitialLiquidity = 3.5
	ev.BundledSubmission = true

	profile, accepted, err := agg.IngestLaunch(ctx, ev)
	require.NoError(t, err)
	assert.True(t, accepted)

	assert.Equal(t, 1, profile.TotalLaunches)
	assert.Equal(t, 1, profile.HourHistogram[14])
	assert.Equal(t, 1, profile.DayHistogram[int(time.Sunday)])
	assert.Equal(t, 1, profile.Seed.Count)
	assert.Equal(t, 3.5, profile.Seed.Mean)
	assert.Equal(t, 1, profile.PlatformCounts[domain.PlatformLaunchLab])
	assert.Equal(t, 1, profile.BundledLaunches)
	assert.Equal(t, at, profile.FirstSeen)
	assert.Equal(t, at, profile.LastActive)
	assert.Equal(t, 1, profile.Windows.Launches7d)
}

func TestIngestLaunchInvalid(t *testing.T) {
	agg, _, _ := testAggregator(t)

	ev := launch("mint1", "walletA", testNow)
	ev.Platform = "SHADYSWAP"
	_, _, err := agg.IngestLaunch(context.Background(), ev)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, _, err = agg.IngestLaunch(context.Background(), &domain.LaunchEvent{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestIngestLaunchDuplicateMint(t *testing.T) {
	agg, _, _ := testAggregator(t)
	ctx := context.Background()
	at := testNow.Add(-time.Hour)

	first, accepted, err := agg.IngestLaunch(ctx, launch("mint1", "walletA", at))
	require.NoError(t, err)
	require.True(t, accepted)
	require.Equal(t, 1, first.TotalLaunches)

	// Exact replay: rejected, profile unchanged.
	replay, accepted, err := agg.IngestLaunch(ctx, launch("mint1", "walletA", at))
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, 1, replay.TotalLaunches)

	// Same mint, different creator: still rejected, and the profile
	// returned belongs to the recorded creator.
	conflicting, accepted, err := agg.IngestLaunch(ctx, launch("mint1", "walletB", at))
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, "walletA", conflicting.Wallet)
}

func TestIngestLaunchWindows(t *testing.T) {
	agg, _, _ := testAggregator(t)
	ctx := context.Background()

	ages := []int{1, 10, 40, 100} // days before testNow
	for i, age := range ages {
		_, _, err := agg.IngestLaunch(ctx, launch(
			fmt.Sprintf("mint%d", i), "walletA", testNow.AddDate(0, 0, -age)))
		require.NoError(t, err)
	}

	profile, err := agg.RecomputeWindows(ctx, "walletA")
	require.NoError(t, err)

	// The 100-day-old launch is outside every window; lifetime count
	// still includes it.
	assert.Equal(t, 4, profile.TotalLaunches)
	assert.Equal(t, 1, profile.Windows.Launches7d)
	assert.Equal(t, 2, profile.Windows.Launches30d)
	assert.Equal(t, 3, profile.Windows.Launches90d)
}

func TestVelocityClassification(t *testing.T) {
	tests := []struct {
		name  string
		times []time.Time
		want  domain.VelocityType
	}{
		{
			name:  "single launch is selective",
			times: []time.Time{testNow.Add(-time.Hour)},
			want:  domain.VelocitySelective,
		},
		{
			name: "six in one day is a serial spammer",
			times: func() []time.Time {
				var ts []time.Time
				base := testNow.Add(-20 * time.Hour)
				for i := 0; i < 6; i++ {
					ts = append(ts, base.Add(time.Duration(i)*time.Hour))
				}
				return ts
			}(),
			want: domain.VelocitySerialSpammer,
		},
		{
			name: "three per day sustained is high frequency",
			times: []time.Time{
				testNow.AddDate(0, 0, -2),
				testNow.AddDate(0, 0, -2).Add(4 * time.Hour),
				testNow.AddDate(0, 0, -2).Add(8 * time.Hour),
				testNow.AddDate(0, 0, -1),
				testNow.AddDate(0, 0, -1).Add(4 * time.Hour),
				testNow.AddDate(0, 0, -1).Add(8 * time.Hour),
			},
			want: domain.VelocityHighFrequency,
		},
		{
			name: "one per day is moderate",
			times: []time.Time{
				testNow.AddDate(0, 0, -3),
				testNow.AddDate(0, 0, -2),
				testNow.AddDate(0, 0, -1),
			},
			want: domain.VelocityModerate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, _, _ := testAggregator(t)
			ctx := context.Background()

			var profile *domain.WalletProfile
			for i, at := range tt.times {
				var err error
				profile, _, err = agg.IngestLaunch(ctx,
					launch(fmt.Sprintf("mint%d", i), "walletA", at))
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, profile.Velocity.Type)
		})
	}
}

func TestIngestOutcome(t *testing.T) {
	agg, _, _ := testAggregator(t)
	ctx := context.Background()

	_, _, err := agg.IngestLaunch(ctx, launch("mint1", "walletA", testNow.Add(-time.Hour)))
	require.NoError(t, err)

	out := &domain.TokenOutcome{
		Mint:          "mint1",
		PeakMarketCap: 250_000,
		Graduated:     true,
		BondingTime:   45 * time.Minute,
		MetadataScore: 80,
	}
	profile, err := agg.IngestOutcome(ctx, out)
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.Equal(t, 1, profile.ResolvedLaunches)
	assert.Equal(t, 1, profile.SuccessfulLaunches)
	assert.Equal(t, 1, profile.GraduatedLaunches)
	assert.Equal(t, 250_000.0, profile.BestPeakMarketCap)
	assert.Equal(t, 45.0, profile.MinBondingMinutes)
	assert.Equal(t, 45.0, profile.AvgBondingMinutes)
	assert.Equal(t, 80.0, profile.AvgMetadataScore)
	assert.Equal(t, 1, profile.Windows.Successes7d)
}

func TestIngestOutcomeAppliedOnce(t *testing.T) {
	agg, _, _ := testAggregator(t)
	ctx := context.Background()

	_, _, err := agg.IngestLaunch(ctx, launch("mint1", "walletA", testNow.Add(-time.Hour)))
	require.NoError(t, err)

	out := &domain.TokenOutcome{Mint: "mint1", PeakMarketCap: 250_000}
	_, err = agg.IngestOutcome(ctx, out)
	require.NoError(t, err)

	// Replay: counters stay put.
	profile, err := agg.IngestOutcome(ctx, out)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, 1, profile.ResolvedLaunches)
	assert.Equal(t, 1, profile.SuccessfulLaunches)
}

func TestIngestOutcomeUnknownMint(t *testing.T) {
	agg, profiles, _ := testAggregator(t)
	ctx := context.Background()

	profile, err := agg.IngestOutcome(ctx, &domain.TokenOutcome{Mint: "ghost", PeakMarketCap: 1})
	require.NoError(t, err)
	assert.Nil(t, profile)

	wallets, err := profiles.Wallets(ctx)
	require.NoError(t, err)
	assert.Empty(t, wallets)
}

func TestIngestOutcomeBelowThresholdIsNotSuccess(t *testing.T) {
	agg, _, _ := testAggregator(t)
	ctx := context.Background()

	_, _, err := agg.IngestLaunch(ctx, launch("mint1", "walletA", testNow.Add(-time.Hour)))
	require.NoError(t, err)

	profile, err := agg.IngestOutcome(ctx, &domain.TokenOutcome{
		Mint:          "mint1",
		PeakMarketCap: 50_000,
		Rugged:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, profile.SuccessfulLaunches)
	assert.Equal(t, 1, profile.RuggedLaunches)
	assert.Equal(t, 1, profile.Windows.Rugs90d)
}

func TestRecordNetworkLink(t *testing.T) {
	agg, profiles, _ := testAggregator(t)
	ctx := context.Background()

	// Endpoint order does not matter; the stored edge is canonical.
	require.NoError(t, agg.RecordNetworkLink(ctx, "walletB", "walletA", domain.RelationCoordinatedLaunch, 0.8))

	for _, wallet := range []string{"walletA", "walletB"} {
		p, err := profiles.Get(ctx, wallet)
		require.NoError(t, err)
		require.Len(t, p.Links, 1)
		assert.Equal(t, "walletA", p.Links[0].WalletA)
		assert.Equal(t, "walletB", p.Links[0].WalletB)
		assert.Equal(t, 0.8, p.Links[0].Strength)
	}

	// Re-recording the same (pair, relation) refreshes, not appends.
	require.NoError(t, agg.RecordNetworkLink(ctx, "walletA", "walletB", domain.RelationCoordinatedLaunch, 0.9))
	p, err := profiles.Get(ctx, "walletA")
	require.NoError(t, err)
	require.Len(t, p.Links, 1)
	assert.Equal(t, 0.9, p.Links[0].Strength)

	// A different relation between the same pair is a second edge.
	require.NoError(t, agg.RecordNetworkLink(ctx, "walletA", "walletB", domain.RelationSameSeedPattern, 0.5))
	p, err = profiles.Get(ctx, "walletA")
	require.NoError(t, err)
	assert.Len(t, p.Links, 2)
}

func TestRecordNetworkLinkValidation(t *testing.T) {
	agg, _, _ := testAggregator(t)
	ctx := context.Background()

	assert.ErrorIs(t, agg.RecordNetworkLink(ctx, "walletA", "walletA", domain.RelationFundsTransfer, 0.5), storage.ErrInvalidInput)
	assert.ErrorIs(t, agg.RecordNetworkLink(ctx, "", "walletB", domain.RelationFundsTransfer, 0.5), storage.ErrInvalidInput)
	assert.ErrorIs(t, agg.RecordNetworkLink(ctx, "walletA", "walletB", domain.RelationFundsTransfer, 1.5), storage.ErrInvalidInput)
}

func TestCacheScore(t *testing.T) {
	agg, profiles, _ := testAggregator(t)
	ctx := context.Background()

	_, _, err := agg.IngestLaunch(ctx, launch("mint1", "walletA", testNow.Add(-time.Hour)))
	require.NoError(t, err)

	snap := &domain.ScoreSnapshot{Wallet: "walletA", AnubisScore: 62.5}
	require.NoError(t, agg.CacheScore(ctx, "walletA", snap))

	p, err := profiles.Get(ctx, "walletA")
	require.NoError(t, err)
	require.NotNil(t, p.LatestScore)
	assert.Equal(t, 62.5, p.LatestScore.AnubisScore)
}

func TestConcurrentIngestSameWallet(t *testing.T) {
	agg, profiles, _ := testAggregator(t)
	ctx := context.Background()

	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := agg.IngestLaunch(ctx, launch(
				fmt.Sprintf("mint%02d", i), "walletA",
				testNow.Add(-time.Duration(i)*time.Minute)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	p, err := profiles.Get(ctx, "walletA")
	require.NoError(t, err)
	assert.Equal(t, n, p.TotalLaunches)
	assert.Equal(t, n, p.Seed.Count)
}
