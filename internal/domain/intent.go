package domain

import "time"

// Side is the direction of a trade intent.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeIntent is the risk manager's bounded order request. Created once
// per decision, never mutated; retried attempts reuse ID so the execution
// layer can deduplicate.
type TradeIntent struct {
	ID          string // idempotency token (UUID)
	Token       string
	Symbol      string
	Side        Side
	Quantity    float64
	Price       float64 // expected price at decision time
	MaxSlippage float64 // max acceptable fill price deviation, as a fraction
	CreatedAt   time.Time
}

// Notional returns the expected order value at decision price.
func (i TradeIntent) Notional() float64 {
	return i.Quantity * i.Price
}

// ReserveAmount returns the capital to reserve before dispatch. Buys
// reserve the slippage buffer on top of the notional so a worst-case
// in-bounds fill never overdraws available capital. Sells reserve nothing.
func (i TradeIntent) ReserveAmount() float64 {
	if i.Side != SideBuy {
		return 0
	}
	return i.Notional() * (1 + i.MaxSlippage)
}

// FillStatus is the terminal outcome of a trade intent.
type FillStatus string

const (
	FillStatusFilled   FillStatus = "FILLED"
	FillStatusPartial  FillStatus = "PARTIALLY_FILLED"
	FillStatusRejected FillStatus = "REJECTED"
	FillStatusTimedOut FillStatus = "TIMED_OUT"
)

// Terminal reports whether the status ends the intent's lifecycle.
// TimedOut is retried by the orchestrator and only becomes terminal once
// retries are exhausted (as Rejected).
func (s FillStatus) Terminal() bool {
	return s == FillStatusFilled || s == FillStatusPartial || s == FillStatusRejected
}

// FillResult is the execution layer's answer to a trade intent.
type FillResult struct {
	IntentID   string
	Status     FillStatus
	FilledQty  float64
	AvgPrice   float64
	Detail     string // error detail for Rejected/TimedOut
	ExecutedAt time.Time
}
