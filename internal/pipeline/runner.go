// Package pipeline wires the feed, aggregator, scoring engine and
// alert policy into one event loop. Per-event failures are logged and
// dropped; only context cancellation or a dead feed stops the runner.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"anubis-watch/internal/aggregator"
	"anubis-watch/internal/alerting"
	"anubis-watch/internal/config"
	"anubis-watch/internal/domain"
	"anubis-watch/internal/feed"
	"anubis-watch/internal/observability"
	"anubis-watch/internal/scoring"
	"anubis-watch/internal/storage"
)

// Options configures a Runner.
type Options struct {
	Source     feed.Source
	Aggregator *aggregator.Aggregator
	Engine     *scoring.Engine
	Alerter    *alerting.Alerter
	Profiles   storage.ProfileStore
	Snapshots  storage.SnapshotStore
	// Archive is an optional secondary snapshot sink. Archive failures
	// never fail the event.
	Archive storage.SnapshotArchive
	Config  config.PipelineConfig
	Logger  *zap.Logger
}

// Runner drives events from the feed through ingestion, scoring and
// alerting.
type Runner struct {
	source    feed.Source
	agg       *aggregator.Aggregator
	engine    *scoring.Engine
	alerter   *alerting.Alerter
	profiles  storage.ProfileStore
	snapshots storage.SnapshotStore
	archive   storage.SnapshotArchive
	cfg       config.PipelineConfig
	log       *zap.Logger
}

// New creates a Runner with the given options.
func New(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Runner{
		source:    opts.Source,
		agg:       opts.Aggregator,
		engine:    opts.Engine,
		alerter:   opts.Alerter,
		profiles:  opts.Profiles,
		snapshots: opts.Snapshots,
		archive:   opts.Archive,
		cfg:       opts.Config,
		log:       opts.Logger,
	}
}

// Run consumes the feed until the context is cancelled or the stream
// ends. Events are distributed across the configured worker count;
// per-wallet locking inside the aggregator keeps concurrent workers
// correct.
func (r *Runner) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	events := make(chan feed.Event)

	group.Go(func() error {
		defer close(events)
		for {
			ev, err := r.source.Next(ctx)
			if err != nil {
				if errors.Is(err, feed.ErrEndOfStream) || errors.Is(err, context.Canceled) {
					return nil
				}
				return fmt.Errorf("reading feed: %w", err)
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	})

	workers := r.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		group.Go(func() error {
			for ev := range events {
				r.handle(ctx, ev)
				if ctx.Err() != nil {
					return nil
				}
			}
			return nil
		})
	}

	if r.cfg.RecomputeIntervalMinutes > 0 {
		group.Go(func() error {
			r.recomputeLoop(ctx)
			return nil
		})
	}

	return group.Wait()
}

func (r *Runner) handle(ctx context.Context, ev feed.Event) {
	switch {
	case ev.Launch != nil:
		if err := r.handleLaunch(ctx, ev.Launch); err != nil {
			r.log.Error("launch handling failed",
				zap.String("mint", ev.Launch.Mint), zap.Error(err))
		}
	case ev.Outcome != nil:
		if err := r.handleOutcome(ctx, ev.Outcome); err != nil {
			r.log.Error("outcome handling failed",
				zap.String("mint", ev.Outcome.Mint), zap.Error(err))
		}
	}
}

func (r *Runner) handleLaunch(ctx context.Context, launch *domain.LaunchEvent) error {
	profile, accepted, err := r.agg.IngestLaunch(ctx, launch)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			observability.RecordLaunchRejected("invalid")
			r.log.Warn("rejecting invalid launch",
				zap.String("mint", launch.Mint), zap.Error(err))
			return nil
		}
		return err
	}
	if !accepted {
		observability.RecordLaunchDuplicate()
		return nil
	}
	observability.RecordLaunchIngested()

	return r.rescore(ctx, profile, launch.Mint, true)
}

func (r *Runner) handleOutcome(ctx context.Context, outcome *domain.TokenOutcome) error {
	profile, err := r.agg.IngestOutcome(ctx, outcome)
	if err != nil {
		return err
	}
	if profile == nil {
		observability.RecordOutcomeDropped("unknown_mint")
		return nil
	}
	observability.RecordOutcomeApplied()

	// Outcomes refresh the score but never alert: an outcome is not a
	// launch to act on.
	return r.rescore(ctx, profile, outcome.Mint, false)
}

// rescore runs a scoring pass for the profile, persists the snapshot
// and, when alert is set, evaluates the alert policy against the
// previous snapshot.
func (r *Runner) rescore(ctx context.Context, profile *domain.WalletProfile, mint string, alert bool) error {
	prev, err := r.snapshots.GetLatest(ctx, profile.Wallet)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("loading previous snapshot for %s: %w", profile.Wallet, err)
	}

	start := time.Now()
	snap := r.engine.Score(profile)
	observability.RecordScore(snap.AnubisScore, time.Since(start).Seconds())

	if err := r.snapshots.Append(ctx, snap); err != nil {
		return fmt.Errorf("appending snapshot for %s: %w", profile.Wallet, err)
	}
	if r.archive != nil {
		if err := r.archive.Append(ctx, snap); err != nil {
			r.log.Warn("snapshot archive append failed",
				zap.String("wallet", profile.Wallet), zap.Error(err))
		}
	}
	if err := r.agg.CacheScore(ctx, profile.Wallet, snap); err != nil {
		return fmt.Errorf("caching score for %s: %w", profile.Wallet, err)
	}

	if !alert {
		return nil
	}
	if _, err := r.alerter.Process(ctx, mint, prev, snap); err != nil {
		return fmt.Errorf("alerting for %s: %w", profile.Wallet, err)
	}
	return nil
}

// recomputeLoop periodically rebuilds every wallet's rolling windows so
// scores decay as launches age out, even for wallets with no new
// events.
func (r *Runner) recomputeLoop(ctx context.Context) {
	interval := time.Duration(r.cfg.RecomputeIntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.recomputeAll(ctx)
		}
	}
}

func (r *Runner) recomputeAll(ctx context.Context) {
	start := time.Now()
	status := "ok"
	defer func() {
		observability.RecordRecompute(status, time.Since(start).Seconds())
	}()

	wallets, err := r.profiles.Wallets(ctx)
	if err != nil {
		status = "error"
		r.log.Error("listing wallets for recompute", zap.Error(err))
		return
	}

	for _, wallet := range wallets {
		if ctx.Err() != nil {
			return
		}
		profile, err := r.agg.RecomputeWindows(ctx, wallet)
		if err != nil {
			status = "error"
			r.log.Error("window recompute failed",
				zap.String("wallet", wallet), zap.Error(err))
			continue
		}
		if err := r.rescore(ctx, profile, "", false); err != nil {
			status = "error"
			r.log.Error("rescore after recompute failed",
				zap.String("wallet", wallet), zap.Error(err))
		}
	}
	r.log.Info("window recompute finished",
		zap.Int("wallets", len(wallets)),
		zap.Duration("took", time.Since(start)))
}
