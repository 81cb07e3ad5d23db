// Package scoring computes the 0-100 Anubis composite score, risk
// rating and developer tier for a wallet profile. Scoring is a pure
// function of the profile and the configured weight table, so the same
// profile always yields the same snapshot apart from the timestamp.
package scoring

import (
	"time"

	"anubis-watch/internal/config"
	"anubis-watch/internal/domain"
)

// Engine scores wallet profiles.
type Engine struct {
	cfg config.ScoringConfig
	now func() time.Time
}

// Options configures an Engine.
type Options struct {
	Config config.ScoringConfig
	// Now overrides the clock, for deterministic tests.
	Now func() time.Time
}

// New returns an Engine with the given options.
func New(opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{cfg: opts.Config, now: opts.Now}
}

// Score computes a full snapshot for the profile. The profile is read
// only; callers hold any locking needed for a consistent view.
func (e *Engine) Score(p *domain.WalletProfile) *domain.ScoreSnapshot {
	comps := e.Components(p)
	composite := e.composite(p, comps)

	return &domain.ScoreSnapshot{
		Wallet:         p.Wallet,
		AnubisScore:    composite,
		RiskRating:     e.riskRating(composite, comps.Scam),
		DeveloperTier:  e.developerTier(composite, p),
		Components:     comps,
		AlertPriority:  alertPriority(composite, comps),
		Flags:          e.flags(p),
		ScoredAt:       e.now().UTC(),
		ScoringVersion: e.cfg.Version,
	}
}

// Components computes the nine independent component scores.
func (e *Engine) Components(p *domain.WalletProfile) domain.ComponentScores {
	return domain.ComponentScores{
		Success:        successScore(p, e.cfg),
		Scam:           scamScore(p, e.cfg),
		TimePattern:    timePatternScore(p, e.cfg),
		Velocity:       velocityScore(p),
		Network:        networkScore(p, e.cfg),
		Momentum:       momentumScore(p),
		Liquidity:      liquidityScore(p),
		Bonding:        bondingScore(p, e.cfg),
		Sophistication: sophisticationScore(p),
	}
}

// composite folds the weighted components into [0,100], inverting the
// scam component. A wallet with no launches gets the neutral 50 prior.
func (e *Engine) composite(p *domain.WalletProfile, c domain.ComponentScores) float64 {
	if p.TotalLaunches == 0 {
		return 50
	}

	w := e.cfg.Weights
	sum := w.Sum()
	if sum <= 0 {
		return 50
	}

	weighted := c.Success*w.Success +
		(100-c.Scam)*w.InverseScam +
		c.TimePattern*w.TimePattern +
		c.Velocity*w.Velocity +
		c.Network*w.Network +
		c.Momentum*w.Momentum
	return clamp(weighted / sum)
}

// riskRating evaluates thresholds in fixed EXTREME > HIGH > MEDIUM
// order, scam branch first, so a wallet can only land in the worst
// bucket it qualifies for.
func (e *Engine) riskRating(score, scam float64) domain.RiskRating {
	r := e.cfg.Risk
	switch {
	case scam > r.ExtremeScam || score < r.ExtremeScore:
		return domain.RiskExtreme
	case scam > r.HighScam || score < r.HighScore:
		return domain.RiskHigh
	case scam > r.MediumScam || score < r.MediumScore:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// developerTier classifies the wallet. ELITE additionally requires a
// demonstrated track record and sophisticated execution: bundled
// submissions or more than two graduations.
func (e *Engine) developerTier(score float64, p *domain.WalletProfile) domain.DeveloperTier {
	t := e.cfg.Tier
	sophisticated := p.BundledLaunches > 0 || p.GraduatedLaunches > 2

	switch {
	case score > t.EliteScore && p.SuccessfulLaunches > t.EliteSuccesses && sophisticated:
		return domain.TierElite
	case score > t.ProScore:
		return domain.TierPro
	case score > t.AmateurScore:
		return domain.TierAmateur
	default:
		return domain.TierScammer
	}
}

// alertPriority maps a snapshot onto the 1-10 urgency scale, 1 most
// urgent. High scorers are opportunities, high scam scores are warnings
// and the middle of the range is ambiguous.
func alertPriority(score float64, c domain.ComponentScores) int {
	switch {
	case score > 75:
		if c.Momentum > 70 {
			return 1
		}
		return 2
	case c.Scam > 70:
		return 9
	case score > 40 && score < 60:
		return 5
	default:
		return 7
	}
}

func (e *Engine) flags(p *domain.WalletProfile) domain.SpecialFlags {
	return domain.SpecialFlags{
		BundledSubmitter: p.BundledLaunches > 0,
		BotLikely:        botLikelihood(p) > e.cfg.BotLikelihood,
		FastBonder:       p.MinBondingMinutes > 0 && p.MinBondingMinutes < e.cfg.FastBondMinutes,
		SerialGraduate:   p.GraduatedLaunches > e.cfg.SerialGraduations,
	}
}
