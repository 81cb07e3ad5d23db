// Package alerting decides when a fresh score snapshot warrants an
// alert and emits at most one alert per (wallet, mint) pair.
package alerting

import (
	"fmt"

	"anubis-watch/internal/config"
	"anubis-watch/internal/domain"
)

// Decision is the outcome of evaluating one snapshot against the
// policy.
type Decision struct {
	Fire    bool
	Level   domain.AlertLevel
	Reasons []string
	// Suppressed names why a would-be alert was withheld, empty when
	// the snapshot simply did not qualify.
	Suppressed string
}

// Policy holds the alert thresholds. Evaluation is pure, so the same
// snapshot pair always yields the same decision.
type Policy struct {
	cfg config.AlertConfig
}

// NewPolicy returns a Policy with the given thresholds.
func NewPolicy(cfg config.AlertConfig) *Policy {
	return &Policy{cfg: cfg}
}

// Evaluate decides whether the transition from prev to next fires an
// alert. prev is nil on a wallet's first scoring pass; only the ELITE
// rule fires then, which keeps cold-start wallets from alerting on a
// single data point. EXTREME risk suppresses every level including
// CRITICAL.
func (p *Policy) Evaluate(prev, next *domain.ScoreSnapshot) Decision {
	if next.RiskRating == domain.RiskExtreme {
		if p.qualifies(prev, next) {
			return Decision{Suppressed: "extreme_risk"}
		}
		return Decision{}
	}

	if next.DeveloperTier == domain.TierElite {
		return Decision{
			Fire:  true,
			Level: domain.AlertCritical,
			Reasons: []string{
				fmt.Sprintf("elite developer tier at score %.1f", next.AnubisScore),
			},
		}
	}
	if prev == nil {
		return Decision{}
	}

	if next.Components.Momentum > p.cfg.MomentumHigh && next.AnubisScore > p.cfg.CompositeHigh {
		return Decision{
			Fire:  true,
			Level: domain.AlertHigh,
			Reasons: []string{
				fmt.Sprintf("momentum %.1f above %.0f", next.Components.Momentum, p.cfg.MomentumHigh),
				fmt.Sprintf("composite %.1f above %.0f", next.AnubisScore, p.cfg.CompositeHigh),
			},
		}
	}

	if next.AnubisScore > p.cfg.CompositeStandard {
		return Decision{
			Fire:  true,
			Level: domain.AlertStandard,
			Reasons: []string{
				fmt.Sprintf("composite %.1f above %.0f", next.AnubisScore, p.cfg.CompositeStandard),
			},
		}
	}
	return Decision{}
}

// qualifies reports whether the snapshot would fire one of the alert
// rules, ignoring risk suppression. Used to distinguish a suppressed
// alert from a snapshot that never qualified.
func (p *Policy) qualifies(prev, next *domain.ScoreSnapshot) bool {
	if next.DeveloperTier == domain.TierElite {
		return true
	}
	if prev == nil {
		return false
	}
	if next.Components.Momentum > p.cfg.MomentumHigh && next.AnubisScore > p.cfg.CompositeHigh {
		return true
	}
	return next.AnubisScore > p.cfg.CompositeStandard
}
