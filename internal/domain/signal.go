package domain

import "time"

// Recommendation is the evaluator's directional verdict for one token.
type Recommendation string

const (
	RecommendEnter Recommendation = "ENTER"
	RecommendHold  Recommendation = "HOLD"
	RecommendExit  Recommendation = "EXIT"
)

// Signal reason codes, recorded so the audit trail explains each verdict.
const (
	ReasonScore        = "SCORE"
	ReasonStopLoss     = "STOP_LOSS"
	ReasonLowLiquidity = "LOW_LIQUIDITY"
	ReasonScoreExit    = "SCORE_EXIT"
)

// Signal is the evaluator's output for one observation. Identical
// observations always produce identical signals.
type Signal struct {
	Token       string
	Symbol      string
	Confidence  float64 // always in [0, 1]
	Recommend   Recommendation
	Reason      string // reason code for the verdict
	Price       float64
	EvaluatedAt time.Time
}
