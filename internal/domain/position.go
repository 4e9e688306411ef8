package domain

import "time"

// Position is a currently held stake in one token. Owned exclusively by
// the portfolio ledger; quantity is always > 0 (zero-quantity positions
// are removed, never retained).
type Position struct {
	Token         string
	Symbol        string
	Quantity      float64
	AvgEntryPrice float64
	OpenedAt      time.Time
}

// CostBasis returns the capital committed to this position.
func (p Position) CostBasis() float64 {
	return p.Quantity * p.AvgEntryPrice
}

// UnrealizedPnL returns the mark-to-market P&L at the given price.
func (p Position) UnrealizedPnL(price float64) float64 {
	return (price - p.AvgEntryPrice) * p.Quantity
}

// DrawdownPct returns the loss fraction relative to entry at the given
// price. Positive values mean the position is under water.
func (p Position) DrawdownPct(price float64) float64 {
	if p.AvgEntryPrice <= 0 {
		return 0
	}
	return (p.AvgEntryPrice - price) / p.AvgEntryPrice
}

// PortfolioView is a read-only snapshot of portfolio state. The risk
// manager decides against views, never against the live ledger.
type PortfolioView struct {
	Positions    map[string]Position
	Available    float64 // uncommitted capital
	Reserved     float64 // capital committed to in-flight orders
	TotalCapital float64 // moves only by realized P&L
	RealizedPnL  float64
	TakenAt      time.Time
}

// Exposure returns the cost basis of all open positions.
func (v PortfolioView) Exposure() float64 {
	total := 0.0
	for _, p := range v.Positions {
		total += p.CostBasis()
	}
	return total
}

// PositionValue returns the cost basis held in one token, 0 if none.
func (v PortfolioView) PositionValue(token string) float64 {
	if p, ok := v.Positions[token]; ok {
		return p.CostBasis()
	}
	return 0
}
