package domain

import "time"

// AlertLevel is the severity of an emitted alert.
type AlertLevel string

const (
	AlertCritical AlertLevel = "CRITICAL"
	AlertHigh     AlertLevel = "HIGH"
	AlertStandard AlertLevel = "STANDARD"
)

// AlertEvent is a decision to notify about a launch by a tracked
// wallet. The (Wallet, Mint) pair is the unit of alerting: the alert
// store enforces at most one alert per pair.
type AlertEvent struct {
	Wallet    string
	Mint      string
	Level     AlertLevel
	Reasons   []string // component conditions that crossed thresholds
	Score     float64  // composite score at decision time
	Tier      DeveloperTier
	CreatedAt time.Time
}
