package domain

import (
	"math"
	"time"
)

// VelocityType classifies a wallet's launch frequency over the trailing
// long window.
type VelocityType string

const (
	VelocitySerialSpammer VelocityType = "SERIAL_SPAMMER" // max daily launches above the spammer threshold
	VelocityHighFrequency VelocityType = "HIGH_FREQUENCY"
	VelocityModerate      VelocityType = "MODERATE"
	VelocitySelective     VelocityType = "SELECTIVE" // default for sparse data
)

// SeedStats holds running statistics over observed seed amounts,
// maintained with Welford's online algorithm so variance never requires
// re-scanning history.
type SeedStats struct {
	Count int
	Mean  float64
	Min   float64
	Max   float64
	M2    float64 // sum of squared deviations from the mean
}

// Add folds one seed amount into the running statistics.
func (s *SeedStats) Add(x float64) {
	s.Count++
	if s.Count == 1 {
		s.Mean = x
		s.Min = x
		s.Max = x
		s.M2 = 0
		return
	}
	if x < s.Min {
		s.Min = x
	}
	if x > s.Max {
		s.Max = x
	}
	delta := x - s.Mean
	s.Mean += delta / float64(s.Count)
	s.M2 += delta * (x - s.Mean)
}

// Variance returns the population variance, 0 with fewer than 2 samples.
func (s *SeedStats) Variance() float64 {
	if s.Count < 2 {
		return 0
	}
	return s.M2 / float64(s.Count)
}

// StdDev returns the population standard deviation.
func (s *SeedStats) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// VelocityMetrics are recomputed from the trailing long-window launch
// history. Intervals are minutes between consecutive launches sorted by
// time.
type VelocityMetrics struct {
	AvgDailyLaunches   float64 // mean launches per active day
	MaxDailyLaunches   int
	MinIntervalMinutes float64 // 0 if fewer than 2 launches in window
	AvgIntervalMinutes float64
	Type               VelocityType
}

// WindowCounters are rolling-window launch/success/rug counters,
// deterministic given a fixed reference time.
type WindowCounters struct {
	Launches7d  int
	Launches30d int
	Launches90d int

	Successes7d  int
	Successes30d int
	Successes90d int

	Rugs90d int
}

// WalletProfile is the aggregate scoring unit, one per creator wallet.
// All attributes are derived from ingested events; the profile is owned
// by the aggregator and mutated only through it.
type WalletProfile struct {
	Wallet string

	// Lifetime counters, monotonically non-decreasing.
	TotalLaunches      int
	SuccessfulLaunches int
	RuggedLaunches     int

	Windows  WindowCounters
	Velocity VelocityMetrics

	// Launch-time histograms in UTC, lifetime.
	HourHistogram [24]int
	DayHistogram  [7]int // 0 = Sunday, matching time.Weekday

	Seed SeedStats

	PlatformCounts map[Platform]int

	// Outcome-derived statistics.
	ResolvedLaunches  int
	BestPeakMarketCap float64
	AvgPeakMarketCap  float64 // running mean over resolved launches

	GraduatedLaunches int
	MinBondingMinutes float64 // 0 until a graduation is observed
	AvgBondingMinutes float64 // running mean over graduations

	BundledLaunches  int // launches submitted via a bundle relay
	MetadataSamples  int
	AvgMetadataScore float64

	// Links are edges to related wallets, stored symmetric: the same
	// undirected edge appears on both endpoint profiles.
	Links []NetworkLink

	FirstSeen  time.Time
	LastActive time.Time

	// LatestScore caches the most recent snapshot; history lives in the
	// append-only snapshot store.
	LatestScore *ScoreSnapshot
}

// NewWalletProfile creates a zero-valued profile for a wallet.
func NewWalletProfile(wallet string) *WalletProfile {
	return &WalletProfile{
		Wallet:         wallet,
		PlatformCounts: make(map[Platform]int),
	}
}

// Clone returns a deep copy so scoring always reads a consistent
// snapshot while ingestion continues.
func (p *WalletProfile) Clone() *WalletProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.PlatformCounts = make(map[Platform]int, len(p.PlatformCounts))
	for k, v := range p.PlatformCounts {
		cp.PlatformCounts[k] = v
	}
	cp.Links = make([]NetworkLink, len(p.Links))
	copy(cp.Links, p.Links)
	if p.LatestScore != nil {
		snap := *p.LatestScore
		cp.LatestScore = &snap
	}
	return &cp
}

// SuccessRate returns lifetime successes over launches, 0 when no
// launches are recorded.
func (p *WalletProfile) SuccessRate() float64 {
	if p.TotalLaunches == 0 {
		return 0
	}
	return float64(p.SuccessfulLaunches) / float64(p.TotalLaunches)
}

// RugRate returns lifetime rugs over launches, 0 when no launches are
// recorded.
func (p *WalletProfile) RugRate() float64 {
	if p.TotalLaunches == 0 {
		return 0
	}
	return float64(p.RuggedLaunches) / float64(p.TotalLaunches)
}

// GraduationRate returns graduations over launches, 0 when no launches
// are recorded.
func (p *WalletProfile) GraduationRate() float64 {
	if p.TotalLaunches == 0 {
		return 0
	}
	return float64(p.GraduatedLaunches) / float64(p.TotalLaunches)
}

// PlatformRatio returns the share of launches on the given platform.
func (p *WalletProfile) PlatformRatio(platform Platform) float64 {
	if p.TotalLaunches == 0 {
		return 0
	}
	return float64(p.PlatformCounts[platform]) / float64(p.TotalLaunches)
}

// PreferredPlatform returns the most-used platform, empty if no
// launches are recorded. Ties break by platform name for determinism.
func (p *WalletProfile) PreferredPlatform() Platform {
	var best Platform
	bestCount := 0
	for _, platform := range KnownPlatforms {
		c := p.PlatformCounts[platform]
		if c > bestCount {
			best = platform
			bestCount = c
		}
	}
	return best
}
