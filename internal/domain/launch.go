package domain

import (
	"fmt"
	"time"
)

// Platform identifies the launch venue a token was created on.
type Platform string

const (
	PlatformPumpFun   Platform = "PUMP_FUN"
	PlatformLaunchLab Platform = "LAUNCH_LAB"
	PlatformRaydium   Platform = "RAYDIUM"
	PlatformMoonshot  Platform = "MOONSHOT"
)

// KnownPlatforms lists every supported launch venue.
var KnownPlatforms = []Platform{PlatformPumpFun, PlatformLaunchLab, PlatformRaydium, PlatformMoonshot}

// Valid reports whether p is a supported launch venue.
func (p Platform) Valid() bool {
	for _, k := range KnownPlatforms {
		if p == k {
			return true
		}
	}
	return false
}

// LaunchEvent is one observed token creation on chain.
// Mint is globally unique; duplicate events for the same mint are
// idempotently ignored downstream.
type LaunchEvent struct {
	Mint             string    // created token mint address
	CreatorWallet    string    // wallet that signed the creation
	Platform         Platform  // launch venue
	LaunchTime       time.Time // UTC
	InitialLiquidity float64   // SOL seeded at launch, 0 if unknown
	Signature        string    // transaction signature, opaque dedup key

	// BundledSubmission is set when the creation landed via a bundle
	// relay rather than the public mempool.
	BundledSubmission bool
}

// Validate checks required fields. Missing numeric fields are not errors;
// they default to zero per the ingestion contract.
func (e *LaunchEvent) Validate() error {
	if e == nil {
		return fmt.Errorf("launch event is nil")
	}
	if e.Mint == "" {
		return fmt.Errorf("launch event missing mint")
	}
	if e.CreatorWallet == "" {
		return fmt.Errorf("launch event missing creator wallet")
	}
	if !e.Platform.Valid() {
		return fmt.Errorf("launch event has unknown platform %q", e.Platform)
	}
	if e.LaunchTime.IsZero() {
		return fmt.Errorf("launch event missing launch time")
	}
	if e.InitialLiquidity < 0 {
		return fmt.Errorf("launch event has negative initial liquidity")
	}
	return nil
}

// TokenOutcome is the later-observed performance of a launched token.
// A mint may never receive an outcome; an unresolved launch counts as
// neither success nor rug.
type TokenOutcome struct {
	Mint          string
	PeakMarketCap float64       // USD, >= 0
	TimeToPeak    time.Duration // launch to peak market cap
	Graduated     bool          // completed the bonding curve
	BondingTime   time.Duration // launch to graduation, 0 if not graduated
	Rugged        bool          // liquidity pulled or price collapsed post-launch

	// MetadataScore grades the completeness of the token's metadata
	// (name, symbol, image, socials), 0-100.
	MetadataScore float64
}

// Validate checks required fields and numeric ranges.
func (o *TokenOutcome) Validate() error {
	if o == nil {
		return fmt.Errorf("token outcome is nil")
	}
	if o.Mint == "" {
		return fmt.Errorf("token outcome missing mint")
	}
	if o.PeakMarketCap < 0 {
		return fmt.Errorf("token outcome has negative peak market cap")
	}
	if o.MetadataScore < 0 || o.MetadataScore > 100 {
		return fmt.Errorf("token outcome metadata score out of range: %f", o.MetadataScore)
	}
	return nil
}

// LaunchRecord is a stored launch plus its resolution state. The launch
// store keeps one record per mint; resolution is applied at most once.
type LaunchRecord struct {
	Event      LaunchEvent
	Resolved   bool
	Successful bool // peak market cap exceeded the success threshold
	Rugged     bool
	Graduated  bool
}
