package domain

import "math"

// Scoring weights. Liquidity dominates because thin pools are the primary
// failure mode for memecoin entries; stability is derived from the recent
// observation window rather than a single sample.
const (
	WeightLiquidity = 0.30
	WeightMomentum  = 0.25
	WeightVolume    = 0.20
	WeightAge       = 0.15
	WeightStability = 0.10
)

// LiquidityScore maps pool liquidity (USD) to [0, 1] in tiers.
func LiquidityScore(liquidity float64) float64 {
	switch {
	case liquidity >= 50_000:
		return 1.0
	case liquidity >= 25_000:
		return 0.8
	case liquidity >= 10_000:
		return 0.6
	case liquidity >= 5_000:
		return 0.4
	default:
		return 0.2
	}
}

// MomentumScore maps the 24h price change (fraction, 0.5 = +50%) to
// [0, 1]. Strong positive momentum scores high, heavy drawdowns low.
func MomentumScore(change24h float64) float64 {
	switch {
	case change24h > 0.5:
		return 0.9
	case change24h > 0.2:
		return 0.7
	case change24h > 0:
		return 0.5
	case change24h > -0.1:
		return 0.3
	default:
		return 0.1
	}
}

// VolumeScore maps 24h trading volume (USD) to [0, 1] in tiers.
func VolumeScore(volume24h float64) float64 {
	switch {
	case volume24h > 1_000_000:
		return 1.0
	case volume24h > 500_000:
		return 0.8
	case volume24h > 100_000:
		return 0.6
	case volume24h > 50_000:
		return 0.4
	default:
		return 0.2
	}
}

// AgeScore rewards fresh pair launches. Pairs older than a day score low;
// unknown creation time scores neutral.
func AgeScore(ageHours float64) float64 {
	switch {
	case ageHours <= 0:
		return 0.5
	case ageHours <= 1:
		return 1.0
	case ageHours <= 6:
		return 0.8
	case ageHours <= 24:
		return 0.6
	default:
		return 0.3
	}
}

// StabilityScore maps the coefficient of variation of recent prices to
// [0, 1]. A flat series scores 1; wild swings approach 0. An empty or
// single-sample series scores neutral.
func StabilityScore(prices []float64) float64 {
	if len(prices) < 2 {
		return 0.5
	}
	mean := 0.0
	for _, p := range prices {
		mean += p
	}
	mean /= float64(len(prices))
	if mean <= 0 {
		return 0
	}
	variance := 0.0
	for _, p := range prices {
		d := p - mean
		variance += d * d
	}
	variance /= float64(len(prices))
	cv := math.Sqrt(variance) / mean
	return clamp01(1 - cv*2)
}

// CompositeScore combines the feature scores into a single bounded
// confidence value.
func CompositeScore(liquidity, momentum, volume, age, stability float64) float64 {
	score := liquidity*WeightLiquidity +
		momentum*WeightMomentum +
		volume*WeightVolume +
		age*WeightAge +
		stability*WeightStability
	return clamp01(score)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
