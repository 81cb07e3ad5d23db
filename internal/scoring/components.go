package scoring

import (
	"math"

	"anubis-watch/internal/config"
	"anubis-watch/internal/domain"
)

// clamp bounds a score to [0,100].
func clamp(score float64) float64 {
	return math.Max(0, math.Min(score, 100))
}

// successScore blends lifetime and 7-day success rates. Recent
// performance weighs 0.6 when any 7-day data exists, else 0.3, and
// consistent winners earn a capped 1.2x bonus.
func successScore(p *domain.WalletProfile, cfg config.ScoringConfig) float64 {
	if p.TotalLaunches == 0 {
		return 0
	}

	rate := p.SuccessRate()
	var rate7 float64
	recentWeight := 0.3
	if p.Windows.Launches7d > 0 {
		rate7 = float64(p.Windows.Successes7d) / float64(p.Windows.Launches7d)
		recentWeight = 0.6
	}
	histWeight := 1 - recentWeight

	score := (rate*histWeight + rate7*recentWeight) * 100
	if p.SuccessfulLaunches > cfg.SuccessBonusCount && rate > cfg.SuccessBonusRate {
		score = math.Min(score*1.2, 100)
	}
	return clamp(score)
}

// botLikelihood estimates how bot-like a wallet's liquidity seeding is
// from the dispersion of its seed amounts: near-identical seeds are the
// signature of automated launches. Fewer than 3 seeded launches is
// insufficient evidence.
func botLikelihood(p *domain.WalletProfile) float64 {
	if p.Seed.Count < 3 || p.Seed.Mean <= 0 {
		return 0
	}
	cv := p.Seed.StdDev() / p.Seed.Mean
	switch {
	case cv < 0.1:
		return 0.9
	case cv < 0.25:
		return 0.7
	case cv < 0.5:
		return 0.4
	default:
		return 0.1
	}
}

// scamScore accumulates suspicion signals; higher means more
// suspicious. Each term is independent and the total clamps to 100.
func scamScore(p *domain.WalletProfile, cfg config.ScoringConfig) float64 {
	score := p.RugRate() * 30

	if p.Velocity.Type == domain.VelocitySerialSpammer {
		score += 25
	}
	if p.Velocity.MinIntervalMinutes > 0 && p.Velocity.MinIntervalMinutes < cfg.FastIntervalMin {
		score += 15
	}
	if botLikelihood(p) > cfg.BotLikelihood {
		score += 20
	}
	if p.MinBondingMinutes > 0 && p.MinBondingMinutes < cfg.FastBondMinutes {
		score += 15
	}
	if p.Seed.Count > 0 && p.Seed.Mean < cfg.MinSeedAmount {
		score += 10
	}
	return clamp(score)
}

// hourConsistency measures how concentrated the launch-hour
// distribution is: 1 - entropy/log2(24), so 1 means a single hour and
// 0 means uniform across the day.
func hourConsistency(hist [24]int) float64 {
	total := 0
	for _, c := range hist {
		total += c
	}
	if total == 0 {
		return 0
	}

	entropy := 0.0
	for _, c := range hist {
		if c == 0 {
			continue
		}
		pr := float64(c) / float64(total)
		entropy -= pr * math.Log2(pr)
	}
	return 1 - entropy/math.Log2(24)
}

// sessionShare returns the fraction of launches inside the session
// window.
func sessionShare(hist [24]int, w config.SessionWindow) float64 {
	total := 0
	inWindow := 0
	for hour, c := range hist {
		total += c
		if w.Contains(hour) {
			inWindow += c
		}
	}
	if total == 0 {
		return 0
	}
	return float64(inWindow) / float64(total)
}

// weekendShare returns the fraction of launches on Saturday or Sunday.
func weekendShare(hist [7]int) float64 {
	total := 0
	for _, c := range hist {
		total += c
	}
	if total == 0 {
		return 0
	}
	// Indexes match time.Weekday: 0 Sunday, 6 Saturday.
	return float64(hist[0]+hist[6]) / float64(total)
}

// timePatternScore rewards consistent, strategically timed launching
// and penalizes weekend-heavy activity. Fewer than 3 launches cannot
// establish a pattern and stay at the neutral 50: a lone launch is
// trivially concentrated in one hour and would earn the consistency
// bonus for free.
func timePatternScore(p *domain.WalletProfile, cfg config.ScoringConfig) float64 {
	if p.TotalLaunches < 3 {
		return 50
	}

	score := 50.0
	if hourConsistency(p.HourHistogram) > cfg.ConsistencyBonus {
		score += 20
	}
	for _, w := range cfg.Sessions {
		if w.Strategic && sessionShare(p.HourHistogram, w) > cfg.SessionShare {
			score += 15
			break
		}
	}
	if weekendShare(p.DayHistogram) > cfg.WeekendShare {
		score -= 10
	}
	return clamp(score)
}

// velocityScore maps the velocity classification to a score: spammers
// rank lowest, selective launchers highest.
func velocityScore(p *domain.WalletProfile) float64 {
	switch p.Velocity.Type {
	case domain.VelocitySerialSpammer:
		return 10
	case domain.VelocityHighFrequency:
		return 30
	case domain.VelocityModerate:
		return 70
	case domain.VelocitySelective:
		return 90
	default:
		return 50
	}
}

// sybilScore derives a wallet-farming likelihood from the wallet's
// incident edges, counting only edges above the confidence floor.
func sybilScore(p *domain.WalletProfile, cfg config.ScoringConfig) (float64, int) {
	coordinated := 0
	sameSeed := 0
	total := 0
	for _, l := range p.Links {
		if l.Strength <= cfg.LinkStrengthFloor {
			continue
		}
		total++
		switch l.Relation {
		case domain.RelationCoordinatedLaunch:
			coordinated++
		case domain.RelationSameSeedPattern:
			sameSeed++
		}
	}

	score := 0.0
	if coordinated >= 3 {
		score += 0.5
	}
	if sameSeed >= 4 {
		score += 0.3
	}
	if total > 10 {
		score += 0.2
	}
	return math.Min(score, 1.0), total
}

// networkScore rewards small, organic networks. Suspected farming
// (sybil score above 0.5) forces the score to 20 regardless of size.
func networkScore(p *domain.WalletProfile, cfg config.ScoringConfig) float64 {
	sybil, size := sybilScore(p, cfg)
	if sybil > 0.5 {
		return 20
	}

	score := 70.0
	if size < 3 {
		score += 20
	} else if size > 10 {
		score -= 30
	}
	score -= sybil * 50
	return clamp(score)
}

// momentumScore rewards recent success and selectivity over spam.
func momentumScore(p *domain.WalletProfile) float64 {
	if p.Windows.Launches7d == 0 {
		return 0
	}

	recent := float64(p.Windows.Successes7d) / float64(p.Windows.Launches7d)
	activity := 70.0
	if p.Windows.Launches7d > 10 {
		activity = 30
	} else if p.Windows.Launches7d > 3 {
		activity = 50
	}
	return clamp(recent*70 + activity*0.3)
}

// liquidityScore grades seeding behavior: human-looking variance scores
// high, uniform bot seeding scores low.
func liquidityScore(p *domain.WalletProfile) float64 {
	if p.Seed.Count == 0 {
		return 50
	}
	bot := botLikelihood(p)
	switch {
	case bot < 0.3:
		return 80
	case bot < 0.5:
		return 60
	case bot < 0.7:
		return 40
	default:
		return 20
	}
}

// bondingScore grades graduation behavior. Bonding inside the natural
// band earns a bonus; implausibly fast bonding is penalized.
func bondingScore(p *domain.WalletProfile, cfg config.ScoringConfig) float64 {
	if p.GraduatedLaunches == 0 {
		return 50
	}

	score := 50 + p.GraduationRate()*30
	avg := p.AvgBondingMinutes
	if avg > cfg.NaturalBondMinutes && avg < cfg.NaturalBondMaxMin {
		score += 20
	} else if avg < cfg.FastBondMinutes {
		score -= 20
	}
	return clamp(score)
}

// sophisticationScore rewards advanced execution, complete metadata and
// successful platform migrations.
func sophisticationScore(p *domain.WalletProfile) float64 {
	score := 0.0

	if p.TotalLaunches > 0 && p.BundledLaunches >= 3 &&
		float64(p.BundledLaunches)/float64(p.TotalLaunches) > 0.5 {
		score += 30
	} else if p.BundledLaunches > 0 {
		score += 15
	}

	score += p.AvgMetadataScore * 0.4

	if p.GraduatedLaunches > 0 {
		score += 20
		if p.GraduationRate() > 0.5 {
			score += 10
		}
	}
	return clamp(score)
}
