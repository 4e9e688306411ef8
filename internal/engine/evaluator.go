package engine

import (
	"github.com/jortega/memetrader/internal/domain"
)

// EvaluatorConfig holds the scoring thresholds.
type EvaluatorConfig struct {
	EnterThreshold float64 // minimum confidence for an Enter verdict
	ExitThreshold  float64 // confidence at or below which a held position exits
	StopLossPct    float64 // drawdown fraction that forces an Exit
	LiquidityFloor float64 // USD liquidity below which entries are blocked
}

// Evaluator scores observations into signals. Pure: the same observation,
// history and position always produce the same signal; the only timestamp
// used is the one carried by the observation.
type Evaluator struct {
	cfg EvaluatorConfig
}

// NewEvaluator creates an evaluator with the given thresholds.
func NewEvaluator(cfg EvaluatorConfig) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Evaluate scores one observation. history is the bounded recent window
// for the same token, oldest first; position is the currently held
// position for the token, nil if none.
//
// Verdict priority: stop-loss Exit beats everything, then the liquidity
// floor forces Hold, then the composite score decides.
func (e *Evaluator) Evaluate(obs domain.TokenObservation, history []domain.TokenObservation, position *domain.Position) domain.Signal {
	confidence := e.confidence(obs, history)

	sig := domain.Signal{
		Token:       obs.Token,
		Symbol:      obs.Symbol,
		Confidence:  confidence,
		Price:       obs.Price,
		EvaluatedAt: obs.ObservedAt,
	}

	if position != nil && position.DrawdownPct(obs.Price) >= e.cfg.StopLossPct {
		sig.Recommend = domain.RecommendExit
		sig.Reason = domain.ReasonStopLoss
		return sig
	}

	if obs.Liquidity < e.cfg.LiquidityFloor {
		sig.Recommend = domain.RecommendHold
		sig.Reason = domain.ReasonLowLiquidity
		return sig
	}

	switch {
	case confidence >= e.cfg.EnterThreshold:
		sig.Recommend = domain.RecommendEnter
		sig.Reason = domain.ReasonScore
	case position != nil && confidence <= e.cfg.ExitThreshold:
		sig.Recommend = domain.RecommendExit
		sig.Reason = domain.ReasonScoreExit
	default:
		sig.Recommend = domain.RecommendHold
		sig.Reason = domain.ReasonScore
	}
	return sig
}

// confidence computes the weighted composite score for one observation.
func (e *Evaluator) confidence(obs domain.TokenObservation, history []domain.TokenObservation) float64 {
	prices := make([]float64, len(history))
	for i, h := range history {
		prices[i] = h.Price
	}
	return domain.CompositeScore(
		domain.LiquidityScore(obs.Liquidity),
		domain.MomentumScore(obs.Change24h),
		domain.VolumeScore(obs.Volume24h),
		domain.AgeScore(obs.AgeHours()),
		domain.StabilityScore(prices),
	)
}
