package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anubis-watch/internal/aggregator"
	"anubis-watch/internal/alerting"
	"anubis-watch/internal/config"
	"anubis-watch/internal/domain"
	"anubis-watch/internal/feed"
	"anubis-watch/internal/scoring"
	"anubis-watch/internal/storage"
	"anubis-watch/internal/storage/memory"
)

type fixture struct {
	runner    *Runner
	profiles  *memory.ProfileStore
	launches  *memory.LaunchStore
	snapshots *memory.SnapshotStore
	alerts    *memory.AlertStore
}

func newFixture(t *testing.T, events ...feed.Event) *fixture {
	t.Helper()

	now := func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	profiles := memory.NewProfileStore()
	launches := memory.NewLaunchStore()
	snapshots := memory.NewSnapshotStore()
	alerts := memory.NewAlertStore()

	agg := aggregator.New(aggregator.Options{
		Profiles: profiles,
		Launches: launches,
		Config:   config.DefaultConfig.Aggregator,
		Now:      now,
	})
	engine := scoring.New(scoring.Options{
		Config: config.DefaultConfig.Scoring,
		Now:    now,
	})
	alerter := alerting.New(alerting.Options{
		Policy: alerting.NewPolicy(config.DefaultConfig.Alerts),
		Alerts: alerts,
		Now:    now,
	})

	runner := New(Options{
		Source:     feed.NewStubSource(events...),
		Aggregator: agg,
		Engine:     engine,
		Alerter:    alerter,
		Profiles:   profiles,
		Snapshots:  snapshots,
		Config:     config.PipelineConfig{Workers: 2},
	})
	return &fixture{
		runner:    runner,
		profiles:  profiles,
		launches:  launches,
		snapshots: snapshots,
		alerts:    alerts,
	}
}

func launchEvent(mint, wallet string, at time.Time) feed.Event {
	return feed.Event{Launch: &domain.LaunchEvent{
		Mint:             mint,
		CreatorWallet:    wallet,
		Platform:         domain.PlatformPumpFun,
		LaunchTime:       at,
		InitialLiquidity: 2,
		Signature:        "sig-" + mint,
	}}
}

func outcomeEvent(mint string, peak float64, rugged bool) feed.Event {
	return feed.Event{Outcome: &domain.TokenOutcome{
		Mint:          mint,
		PeakMarketCap: peak,
		Rugged:        rugged,
	}}
}

func TestRunnerScoresEveryLaunch(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := newFixture(t,
		launchEvent("mint1", "walletA", at),
		launchEvent("mint2", "walletA", at.Add(time.Hour)),
		launchEvent("mint3", "walletB", at),
	)

	require.NoError(t, f.runner.Run(context.Background()))

	ctx := context.Background()
	profileA, err := f.profiles.Get(ctx, "walletA")
	require.NoError(t, err)
	assert.Equal(t, 2, profileA.TotalLaunches)
	require.NotNil(t, profileA.LatestScore)

	profileB, err := f.profiles.Get(ctx, "walletB")
	require.NoError(t, err)
	assert.Equal(t, 1, profileB.TotalLaunches)

	snap, err := f.snapshots.GetLatest(ctx, "walletA")
	require.NoError(t, err)
	assert.Equal(t, profileA.LatestScore.AnubisScore, snap.AnubisScore)
}

func TestRunnerDuplicateLaunchScoredOnce(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := newFixture(t,
		launchEvent("mint1", "walletA", at),
		launchEvent("mint1", "walletA", at),
		launchEvent("mint1", "walletB", at), // conflicting creator, same mint
	)

	require.NoError(t, f.runner.Run(context.Background()))

	ctx := context.Background()
	profile, err := f.profiles.Get(ctx, "walletA")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TotalLaunches)

	// The conflicting creator never gained a profile.
	_, err = f.profiles.Get(ctx, "walletB")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	history := f.snapshots.History("walletA")
	assert.Len(t, history, 1)
}

func TestRunnerOutcomeUpdatesScore(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := newFixture(t,
		launchEvent("mint1", "walletA", at),
		outcomeEvent("mint1", 250_000, false),
	)

	require.NoError(t, f.runner.Run(context.Background()))

	ctx := context.Background()
	profile, err := f.profiles.Get(ctx, "walletA")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.SuccessfulLaunches)

	// One snapshot for the launch, one for the outcome.
	assert.Len(t, f.snapshots.History("walletA"), 2)
}

func TestRunnerUnknownOutcomeDropped(t *testing.T) {
	f := newFixture(t, outcomeEvent("ghost-mint", 250_000, false))

	require.NoError(t, f.runner.Run(context.Background()))
	wallets, err := f.profiles.Wallets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, wallets)
}

func TestRunnerManyWalletsConcurrently(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	var events []feed.Event
	for i := 0; i < 40; i++ {
		wallet := fmt.Sprintf("wallet%02d", i%8)
		mint := fmt.Sprintf("mint%02d", i)
		events = append(events, launchEvent(mint, wallet, at.Add(time.Duration(i)*time.Minute)))
	}
	f := newFixture(t, events...)

	require.NoError(t, f.runner.Run(context.Background()))

	wallets, err := f.profiles.Wallets(context.Background())
	require.NoError(t, err)
	require.Len(t, wallets, 8)

	total := 0
	for _, w := range wallets {
		p, err := f.profiles.Get(context.Background(), w)
		require.NoError(t, err)
		total += p.TotalLaunches
	}
	assert.Equal(t, 40, total)
}
