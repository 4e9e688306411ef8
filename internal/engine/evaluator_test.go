package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jortega/memetrader/internal/domain"
)

func testEvaluator() *Evaluator {
	return NewEvaluator(EvaluatorConfig{
		EnterThreshold: 0.7,
		ExitThreshold:  0.3,
		StopLossPct:    0.2,
		LiquidityFloor: 5_000,
	})
}

// strongObservation scores high on every feature: deep liquidity, strong
// momentum, heavy volume, fresh pair.
func strongObservation(token string, price float64) domain.TokenObservation {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	return domain.TokenObservation{
		Token:       token,
		Symbol:      token,
		Price:       price,
		Volume24h:   2_000_000,
		Liquidity:   80_000,
		Change24h:   0.6,
		PairCreated: now.Add(-30 * time.Minute),
		ObservedAt:  now,
	}
}

func TestEvaluator_StrongObservationEnters(t *testing.T) {
	sig := testEvaluator().Evaluate(strongObservation("PEPE", 1.0), nil, nil)

	assert.Equal(t, domain.RecommendEnter, sig.Recommend)
	assert.GreaterOrEqual(t, sig.Confidence, 0.7)
}

func TestEvaluator_ConfidenceAlwaysBounded(t *testing.T) {
	e := testEvaluator()
	observations := []domain.TokenObservation{
		strongObservation("A", 1.0),
		{Token: "B", Price: 0.001, ObservedAt: time.Now()},
		{Token: "C", Price: 1, Volume24h: 1e12, Liquidity: 1e12, Change24h: 100, ObservedAt: time.Now()},
	}
	for _, obs := range observations {
		sig := e.Evaluate(obs, nil, nil)
		assert.GreaterOrEqual(t, sig.Confidence, 0.0)
		assert.LessOrEqual(t, sig.Confidence, 1.0)
	}
}

func TestEvaluator_LowLiquidityNeverEnters(t *testing.T) {
	e := testEvaluator()

	obs := strongObservation("PEPE", 1.0)
	obs.Liquidity = 4_999 // just under the floor

	sig := e.Evaluate(obs, nil, nil)
	assert.Equal(t, domain.RecommendHold, sig.Recommend)
	assert.Equal(t, domain.ReasonLowLiquidity, sig.Reason)
}

func TestEvaluator_StopLossOverridesScore(t *testing.T) {
	e := testEvaluator()

	// Entry at 1.0, price now 0.5: 50% drawdown, stop-loss threshold 20%.
	obs := strongObservation("PEPE", 0.5)
	pos := &domain.Position{Token: "PEPE", Quantity: 100, AvgEntryPrice: 1.0}

	sig := e.Evaluate(obs, nil, pos)
	assert.Equal(t, domain.RecommendExit, sig.Recommend)
	assert.Equal(t, domain.ReasonStopLoss, sig.Reason)
}

func TestEvaluator_StopLossBeatsLiquidityFloor(t *testing.T) {
	e := testEvaluator()

	obs := strongObservation("PEPE", 0.5)
	obs.Liquidity = 100 // illiquid AND under water
	pos := &domain.Position{Token: "PEPE", Quantity: 100, AvgEntryPrice: 1.0}

	sig := e.Evaluate(obs, nil, pos)
	assert.Equal(t, domain.RecommendExit, sig.Recommend, "stop-loss must still fire in illiquid markets")
}

func TestEvaluator_LowScoreExitsHeldPosition(t *testing.T) {
	e := testEvaluator()

	// Weak on every feature but not under water.
	now := time.Now().UTC()
	obs := domain.TokenObservation{
		Token: "PEPE", Symbol: "PEPE", Price: 1.0,
		Volume24h: 1_000, Liquidity: 6_000, Change24h: -0.5,
		PairCreated: now.Add(-72 * time.Hour), ObservedAt: now,
	}
	pos := &domain.Position{Token: "PEPE", Quantity: 100, AvgEntryPrice: 0.95}

	sig := e.Evaluate(obs, nil, pos)
	assert.Equal(t, domain.RecommendExit, sig.Recommend)
	assert.Equal(t, domain.ReasonScoreExit, sig.Reason)
}

func TestEvaluator_LowScoreWithoutPositionHolds(t *testing.T) {
	e := testEvaluator()

	now := time.Now().UTC()
	obs := domain.TokenObservation{
		Token: "PEPE", Symbol: "PEPE", Price: 1.0,
		Volume24h: 1_000, Liquidity: 6_000, Change24h: -0.5,
		PairCreated: now.Add(-72 * time.Hour), ObservedAt: now,
	}

	sig := e.Evaluate(obs, nil, nil)
	assert.Equal(t, domain.RecommendHold, sig.Recommend)
}

func TestEvaluator_Deterministic(t *testing.T) {
	e := testEvaluator()
	obs := strongObservation("PEPE", 1.0)
	history := []domain.TokenObservation{strongObservation("PEPE", 0.98), strongObservation("PEPE", 0.99)}
	pos := &domain.Position{Token: "PEPE", Quantity: 10, AvgEntryPrice: 0.9}

	first := e.Evaluate(obs, history, pos)
	second := e.Evaluate(obs, history, pos)
	assert.Equal(t, first, second, "identical inputs must produce identical signals")
}

func TestEvaluator_VolatileHistoryLowersConfidence(t *testing.T) {
	e := testEvaluator()
	obs := strongObservation("PEPE", 1.0)

	flat := []domain.TokenObservation{
		strongObservation("PEPE", 1.0),
		strongObservation("PEPE", 1.0),
		strongObservation("PEPE", 1.0),
	}
	wild := []domain.TokenObservation{
		strongObservation("PEPE", 0.2),
		strongObservation("PEPE", 3.0),
		strongObservation("PEPE", 0.5),
	}

	calm := e.Evaluate(obs, flat, nil)
	choppy := e.Evaluate(obs, wild, nil)
	assert.Greater(t, calm.Confidence, choppy.Confidence)
}
