package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedStatsWelford(t *testing.T) {
	var s SeedStats
	assert.Equal(t, 0.0, s.Variance())
	assert.Equal(t, 0.0, s.StdDev())

	for _, x := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Add(x)
	}
	require.Equal(t, 8, s.Count)
	assert.InDelta(t, 5.0, s.Mean, 1e-9)
	// Population variance of the classic example set is 4.
	assert.InDelta(t, 4.0, s.Variance(), 1e-9)
	assert.InDelta(t, 2.0, s.StdDev(), 1e-9)
}

func TestSeedStatsIdenticalSeeds(t *testing.T) {
	var s SeedStats
	for i := 0; i < 5; i++ {
		s.Add(1.5)
	}
	assert.InDelta(t, 1.5, s.Mean, 1e-12)
	assert.True(t, math.Abs(s.Variance()) < 1e-12)
}

func TestProfileRates(t *testing.T) {
	p := NewWalletProfile("walletA")
	assert.Equal(t, 0.0, p.SuccessRate())
	assert.Equal(t, 0.0, p.RugRate())
	assert.Equal(t, 0.0, p.GraduationRate())

	p.TotalLaunches = 10
	p.ResolvedLaunches = 8
	p.SuccessfulLaunches = 2
	p.RuggedLaunches = 4
	p.GraduatedLaunches = 1

	assert.InDelta(t, 0.25, p.SuccessRate(), 1e-9)
	assert.InDelta(t, 0.5, p.RugRate(), 1e-9)
	assert.InDelta(t, 0.1, p.GraduationRate(), 1e-9)
}

func TestPreferredPlatform(t *testing.T) {
	p := NewWalletProfile("walletA")
	assert.Equal(t, Platform(""), p.PreferredPlatform())

	p.PlatformCounts[PlatformPumpFun] = 3
	p.PlatformCounts[PlatformLaunchLab] = 1
	p.TotalLaunches = 4
	assert.Equal(t, PlatformPumpFun, p.PreferredPlatform())
	assert.InDelta(t, 0.75, p.PlatformRatio(PlatformPumpFun), 1e-9)
}

func TestCloneIsDeep(t *testing.T) {
	p := NewWalletProfile("walletA")
	p.PlatformCounts[PlatformPumpFun] = 1
	p.Links = []NetworkLink{{WalletA: "walletA", WalletB: "walletB", Relation: RelationFundsTransfer, Strength: 0.4}}
	p.LatestScore = &ScoreSnapshot{Wallet: "walletA", AnubisScore: 55}

	cp := p.Clone()
	cp.PlatformCounts[PlatformPumpFun] = 99
	cp.Links[0].Strength = 0.9
	cp.LatestScore.AnubisScore = 1
	cp.HourHistogram[0] = 42

	assert.Equal(t, 1, p.PlatformCounts[PlatformPumpFun])
	assert.Equal(t, 0.4, p.Links[0].Strength)
	assert.Equal(t, 55.0, p.LatestScore.AnubisScore)
	assert.Equal(t, 0, p.HourHistogram[0])
}
