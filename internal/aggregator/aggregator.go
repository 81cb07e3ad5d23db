// Package aggregator maintains per-wallet rolling statistics derived
// from launch events and token outcomes. It owns WalletProfile
// mutation: all profile writes are serialized per wallet key, and the
// launch store is the dedup authority so ingestion is idempotent per
// mint.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"anubis-watch/internal/config"
	"anubis-watch/internal/domain"
	"anubis-watch/internal/observability"
	"anubis-watch/internal/storage"
)

// Options configures an Aggregator.
type Options struct {
	Profiles storage.ProfileStore
	Launches storage.LaunchStore
	Config   config.AggregatorConfig
	Logger   *zap.Logger

	// Now overrides the clock for deterministic window computation in
	// tests. Defaults to time.Now.
	Now func() time.Time
}

// Aggregator converts event streams into always-current wallet
// profiles.
type Aggregator struct {
	profiles storage.ProfileStore
	launches storage.LaunchStore
	cfg      config.AggregatorConfig
	logger   *zap.Logger
	now      func() time.Time
	locks    *walletLocks
}

// New creates a new Aggregator.
func New(opts Options) *Aggregator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		profiles: opts.Profiles,
		launches: opts.Launches,
		cfg:      opts.Config,
		logger:   logger,
		now:      now,
		locks:    newWalletLocks(),
	}
}

// IngestLaunch folds one launch event into its creator's profile.
// Duplicate mints are rejected idempotently: the stored profile is
// returned unchanged with accepted=false, even when the duplicate names
// a different creator.
func (a *Aggregator) IngestLaunch(ctx context.Context, ev *domain.LaunchEvent) (*domain.WalletProfile, bool, error) {
	if err := ev.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	event := *ev
	event.LaunchTime = event.LaunchTime.UTC()

	// The launch store insert is the atomic dedup point.
	if err := a.launches.Insert(ctx, &event); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return a.rejectDuplicate(ctx, &event)
		}
		return nil, false, fmt.Errorf("insert launch: %w", err)
	}

	unlock := a.locks.lock(event.CreatorWallet)
	defer unlock()

	profile, err := a.loadOrCreate(ctx, event.CreatorWallet)
	if err != nil {
		return nil, false, err
	}

	profile.TotalLaunches++
	profile.HourHistogram[event.LaunchTime.Hour()]++
	profile.DayHistogram[int(event.LaunchTime.Weekday())]++
	profile.Seed.Add(event.InitialLiquidity)
	profile.PlatformCounts[event.Platform]++
	if event.BundledSubmission {
		profile.BundledLaunches++
	}
	if profile.FirstSeen.IsZero() || event.LaunchTime.Before(profile.FirstSeen) {
		profile.FirstSeen = event.LaunchTime
	}
	if event.LaunchTime.After(profile.LastActive) {
		profile.LastActive = event.LaunchTime
	}

	if err := a.refreshWindows(ctx, profile); err != nil {
		return nil, false, err
	}

	// Abort cleanly on deadline before committing: the prior saved
	// state is left untouched.
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := a.profiles.Save(ctx, profile); err != nil {
		return nil, false, fmt.Errorf("save profile: %w", err)
	}
	return profile, true, nil
}

// rejectDuplicate resolves the no-op result for a duplicate mint.
func (a *Aggregator) rejectDuplicate(ctx context.Context, ev *domain.LaunchEvent) (*domain.WalletProfile, bool, error) {
	rec, err := a.launches.GetByMint(ctx, ev.Mint)
	if err != nil {
		return nil, false, fmt.Errorf("load duplicate launch: %w", err)
	}
	if rec.Event.CreatorWallet != ev.CreatorWallet {
		a.logger.Warn("duplicate mint with conflicting creator",
			zap.String("mint", ev.Mint),
			zap.String("recorded_creator", rec.Event.CreatorWallet),
			zap.String("conflicting_creator", ev.CreatorWallet),
		)
	}
	profile, err := a.profiles.Get(ctx, rec.Event.CreatorWallet)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.NewWalletProfile(rec.Event.CreatorWallet), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return profile, false, nil
}

// IngestOutcome applies a token outcome to the owning wallet's profile.
// Unknown mints are dropped without mutation; an outcome is applied at
// most once per mint.
func (a *Aggregator) IngestOutcome(ctx context.Context, out *domain.TokenOutcome) (*domain.WalletProfile, error) {
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := a.launches.GetByMint(ctx, out.Mint)
	if errors.Is(err, storage.ErrNotFound) {
		a.logger.Warn("outcome for unknown mint dropped", zap.String("mint", out.Mint))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve outcome wallet: %w", err)
	}

	wallet := rec.Event.CreatorWallet
	successful := out.PeakMarketCap > a.cfg.SuccessThreshold
	if err := a.launches.MarkResolved(ctx, out.Mint, successful, out.Rugged, out.Graduated); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// Outcome already applied; idempotent no-op.
			return a.profiles.Get(ctx, wallet)
		}
		return nil, fmt.Errorf("mark resolved: %w", err)
	}

	unlock := a.locks.lock(wallet)
	defer unlock()

	profile, err := a.loadOrCreate(ctx, wallet)
	if err != nil {
		return nil, err
	}

	profile.ResolvedLaunches++
	if out.PeakMarketCap > profile.BestPeakMarketCap {
		profile.BestPeakMarketCap = out.PeakMarketCap
	}
	profile.AvgPeakMarketCap += (out.PeakMarketCap - profile.AvgPeakMarketCap) / float64(profile.ResolvedLaunches)

	if successful {
		profile.SuccessfulLaunches++
	}
	if out.Rugged {
		profile.RuggedLaunches++
	}
	if out.Graduated {
		profile.GraduatedLaunches++
		minutes := out.BondingTime.Minutes()
		if profile.MinBondingMinutes == 0 || minutes < profile.MinBondingMinutes {
			profile.MinBondingMinutes = minutes
		}
		profile.AvgBondingMinutes += (minutes - profile.AvgBondingMinutes) / float64(profile.GraduatedLaunches)
	}
	if out.MetadataScore > 0 {
		profile.MetadataSamples++
		profile.AvgMetadataScore += (out.MetadataScore - profile.AvgMetadataScore) / float64(profile.MetadataSamples)
	}

	if err := a.refreshWindows(ctx, profile); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := a.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

// RecordNetworkLink upserts a symmetric edge between two wallets: the
// same undirected edge is written to both endpoint profiles under the
// canonical (sorted) pair. Re-recording an existing (pair, relation)
// edge refreshes its strength and last-seen time.
func (a *Aggregator) RecordNetworkLink(ctx context.Context, walletA, walletB string, relation domain.RelationType, strength float64) error {
	if walletA == "" || walletB == "" || walletA == walletB {
		return fmt.Errorf("%w: network link requires two distinct wallets", storage.ErrInvalidInput)
	}
	if strength < 0 || strength > 1 {
		return fmt.Errorf("%w: link strength %f outside [0,1]", storage.ErrInvalidInput, strength)
	}

	first, second := domain.CanonicalPair(walletA, walletB)
	now := a.now().UTC()

	unlock := a.locks.lockPair(first, second)
	defer unlock()

	for _, wallet := range []string{first, second} {
		profile, err := a.loadOrCreate(ctx, wallet)
		if err != nil {
			return err
		}
		upsertLink(profile, first, second, relation, strength, now)
		if err := a.profiles.Save(ctx, profile); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
	}
	observability.RecordNetworkLink()
	return nil
}

func upsertLink(p *domain.WalletProfile, first, second string, relation domain.RelationType, strength float64, now time.Time) {
	for i := range p.Links {
		l := &p.Links[i]
		if l.WalletA == first && l.WalletB == second && l.Relation == relation {
			l.Strength = strength
			l.LastSeen = now
			return
		}
	}
	p.Links = append(p.Links, domain.NetworkLink{
		WalletA:   first,
		WalletB:   second,
		Relation:  relation,
		Strength:  strength,
		FirstSeen: now,
		LastSeen:  now,
	})
}

// RecomputeWindows rebuilds the rolling-window counters and velocity
// metrics for a wallet from its stored launch history. Safe to run
// concurrently with ingestion: it takes the same per-wallet lock and
// recomputes from the event history instead of mutating counters in
// place.
func (a *Aggregator) RecomputeWindows(ctx context.Context, wallet string) (*domain.WalletProfile, error) {
	unlock := a.locks.lock(wallet)
	defer unlock()

	profile, err := a.profiles.Get(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if err := a.refreshWindows(ctx, profile); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := a.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

// CacheScore stores the latest snapshot on the profile.
func (a *Aggregator) CacheScore(ctx context.Context, wallet string, snap *domain.ScoreSnapshot) error {
	unlock := a.locks.lock(wallet)
	defer unlock()

	profile, err := a.profiles.Get(ctx, wallet)
	if err != nil {
		return err
	}
	snapCopy := *snap
	profile.LatestScore = &snapCopy
	return a.profiles.Save(ctx, profile)
}

func (a *Aggregator) loadOrCreate(ctx context.Context, wallet string) (*domain.WalletProfile, error) {
	profile, err := a.profiles.Get(ctx, wallet)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.NewWalletProfile(wallet), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// refreshWindows recomputes windowed counters and velocity from the
// long-window launch history against the injected clock.
func (a *Aggregator) refreshWindows(ctx context.Context, profile *domain.WalletProfile) error {
	now := a.now().UTC()
	since := now.AddDate(0, 0, -a.cfg.LongWindowDays)

	records, err := a.launches.GetByWallet(ctx, profile.Wallet, since)
	if err != nil {
		return fmt.Errorf("load launch history: %w", err)
	}

	profile.Windows = computeWindows(records, now, a.cfg)
	profile.Velocity = computeVelocity(records, a.cfg)
	return nil
}
