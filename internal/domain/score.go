package domain

import "time"

// RiskRating buckets a wallet's risk, derived from the scam component
// and the composite score.
type RiskRating string

const (
	RiskLow     RiskRating = "LOW"
	RiskMedium  RiskRating = "MEDIUM"
	RiskHigh    RiskRating = "HIGH"
	RiskExtreme RiskRating = "EXTREME"
)

// DeveloperTier classifies a creator wallet.
type DeveloperTier string

const (
	TierElite   DeveloperTier = "ELITE"
	TierPro     DeveloperTier = "PRO"
	TierAmateur DeveloperTier = "AMATEUR"
	TierScammer DeveloperTier = "SCAMMER"
)

// ComponentScores are the independent signals feeding the composite,
// each in [0,100]. Scam is inverted when combined: higher means more
// suspicious.
type ComponentScores struct {
	Success        float64
	Scam           float64
	TimePattern    float64
	Velocity       float64
	Network        float64
	Momentum       float64
	Liquidity      float64
	Bonding        float64
	Sophistication float64
}

// SpecialFlags carry notable behaviors surfaced alongside the score.
type SpecialFlags struct {
	BundledSubmitter bool // creations land via bundle relays
	BotLikely        bool // seed amounts too uniform for a human
	FastBonder       bool // fastest graduation under 10 minutes
	SerialGraduate   bool // more than 5 graduations
}

// ScoreSnapshot is the immutable output of one scoring pass for a
// wallet. Snapshots are stored append-only for audit; the latest one is
// cached on the profile.
type ScoreSnapshot struct {
	Wallet         string
	AnubisScore    float64 // 0-100 composite
	RiskRating     RiskRating
	DeveloperTier  DeveloperTier
	Components     ComponentScores
	AlertPriority  int // 1-10, 1 most urgent
	Flags          SpecialFlags
	ScoredAt       time.Time
	ScoringVersion string
}
