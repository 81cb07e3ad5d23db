package alerting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"anubis-watch/internal/domain"
	"anubis-watch/internal/notify"
	"anubis-watch/internal/observability"
	"anubis-watch/internal/storage"
)

// Alerter applies the policy to score snapshots and persists fired
// alerts. The alert store's conditional insert is the idempotency
// authority: replays and concurrent workers on the same (wallet, mint)
// emit exactly one alert.
type Alerter struct {
	policy   *Policy
	alerts   storage.AlertStore
	notifier notify.Notifier
	log      *zap.Logger
	now      func() time.Time
}

// Options configures an Alerter.
type Options struct {
	Policy   *Policy
	Alerts   storage.AlertStore
	Notifier notify.Notifier
	Logger   *zap.Logger
	// Now overrides the clock, for deterministic tests.
	Now func() time.Time
}

// New returns an Alerter with the given options.
func New(opts Options) *Alerter {
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Alerter{
		policy:   opts.Policy,
		alerts:   opts.Alerts,
		notifier: opts.Notifier,
		log:      opts.Logger,
		now:      opts.Now,
	}
}

// Process evaluates the snapshot transition for a launch and emits an
// alert if the policy fires. Returns the emitted alert, or nil when
// nothing fired or the pair already alerted. Notification runs in the
// background; delivery failure does not fail the call.
func (a *Alerter) Process(ctx context.Context, mint string, prev, next *domain.ScoreSnapshot) (*domain.AlertEvent, error) {
	decision := a.policy.Evaluate(prev, next)
	if !decision.Fire {
		if decision.Suppressed != "" {
			observability.RecordAlertSuppressed(decision.Suppressed)
			a.log.Info("alert suppressed",
				zap.String("wallet", next.Wallet),
				zap.String("mint", mint),
				zap.String("reason", decision.Suppressed))
		}
		return nil, nil
	}

	alert := &domain.AlertEvent{
		Wallet:    next.Wallet,
		Mint:      mint,
		Level:     decision.Level,
		Reasons:   decision.Reasons,
		Score:     next.AnubisScore,
		Tier:      next.DeveloperTier,
		CreatedAt: a.now().UTC(),
	}

	inserted, err := a.alerts.TryInsert(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("persisting alert for %s/%s: %w", alert.Wallet, mint, err)
	}
	if !inserted {
		observability.RecordAlertDuplicate()
		a.log.Debug("alert already emitted",
			zap.String("wallet", alert.Wallet),
			zap.String("mint", mint))
		return nil, nil
	}

	observability.RecordAlertEmitted(string(alert.Level))
	a.log.Info("alert emitted",
		zap.String("wallet", alert.Wallet),
		zap.String("mint", mint),
		zap.String("level", string(alert.Level)),
		zap.Float64("score", alert.Score),
		zap.Strings("reasons", alert.Reasons))

	go a.deliver(context.WithoutCancel(ctx), alert)
	return alert, nil
}

func (a *Alerter) deliver(ctx context.Context, alert *domain.AlertEvent) {
	if err := a.notifier.Notify(ctx, alert); err != nil {
		observability.RecordNotifyFailure()
		a.log.Warn("alert delivery failed",
			zap.String("wallet", alert.Wallet),
			zap.String("mint", alert.Mint),
			zap.Error(err))
	}
}
