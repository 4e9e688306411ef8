package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiquidityScore_Tiers(t *testing.T) {
	cases := []struct {
		liquidity float64
		want      float64
	}{
		{100_000, 1.0},
		{50_000, 1.0},
		{49_999, 0.8},
		{25_000, 0.8},
		{10_000, 0.6},
		{5_000, 0.4},
		{4_999, 0.2},
		{0, 0.2},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, LiquidityScore(tc.liquidity), 1e-9, "liquidity %.0f", tc.liquidity)
	}
}

func TestMomentumScore_Tiers(t *testing.T) {
	cases := []struct {
		change float64
		want   float64
	}{
		{1.5, 0.9},
		{0.51, 0.9},
		{0.5, 0.7},
		{0.21, 0.7},
		{0.1, 0.5},
		{0.0, 0.3},
		{-0.05, 0.3},
		{-0.1, 0.1},
		{-0.9, 0.1},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, MomentumScore(tc.change), 1e-9, "change %.2f", tc.change)
	}
}

func TestVolumeScore_Tiers(t *testing.T) {
	assert.InDelta(t, 1.0, VolumeScore(2_000_000), 1e-9)
	assert.InDelta(t, 0.8, VolumeScore(600_000), 1e-9)
	assert.InDelta(t, 0.6, VolumeScore(200_000), 1e-9)
	assert.InDelta(t, 0.4, VolumeScore(60_000), 1e-9)
	assert.InDelta(t, 0.2, VolumeScore(10_000), 1e-9)
}

func TestAgeScore_FreshPairsScoreHighest(t *testing.T) {
	assert.InDelta(t, 1.0, AgeScore(0.5), 1e-9)
	assert.InDelta(t, 0.8, AgeScore(3), 1e-9)
	assert.InDelta(t, 0.6, AgeScore(12), 1e-9)
	assert.InDelta(t, 0.3, AgeScore(48), 1e-9)
	// Unknown creation time is neutral, not penalized.
	assert.InDelta(t, 0.5, AgeScore(0), 1e-9)
	assert.InDelta(t, 0.5, AgeScore(-1), 1e-9)
}

func TestStabilityScore(t *testing.T) {
	assert.InDelta(t, 0.5, StabilityScore(nil), 1e-9)
	assert.InDelta(t, 0.5, StabilityScore([]float64{1.0}), 1e-9)
	assert.InDelta(t, 1.0, StabilityScore([]float64{2.0, 2.0, 2.0}), 1e-9)
	assert.InDelta(t, 0.0, StabilityScore([]float64{0, 0, 0}), 1e-9)

	flat := StabilityScore([]float64{1.0, 1.01, 0.99})
	wild := StabilityScore([]float64{0.2, 3.0, 0.5})
	assert.Greater(t, flat, wild)

	for _, prices := range [][]float64{{1, 100}, {0.001, 0.002}, {5, 5, 5, 0.1}} {
		s := StabilityScore(prices)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestCompositeScore_Bounded(t *testing.T) {
	assert.InDelta(t, 1.0, CompositeScore(1, 1, 1, 1, 1), 1e-9)
	assert.InDelta(t, 0.0, CompositeScore(0, 0, 0, 0, 0), 1e-9)

	// Weights sum to 1, so uniform feature scores pass through.
	assert.InDelta(t, 0.5, CompositeScore(0.5, 0.5, 0.5, 0.5, 0.5), 1e-9)

	mid := CompositeScore(1.0, 0.9, 1.0, 1.0, 0.5)
	assert.GreaterOrEqual(t, mid, 0.0)
	assert.LessOrEqual(t, mid, 1.0)
}

func TestCompositeScore_WeightsSumToOne(t *testing.T) {
	sum := WeightLiquidity + WeightMomentum + WeightVolume + WeightAge + WeightStability
	assert.InDelta(t, 1.0, sum, 1e-9)
}
