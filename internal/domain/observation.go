package domain

import (
	"fmt"
	"time"
)

// TokenObservation is one normalized market sample for one token pair at
// one instant. Observations are immutable and live for a single tick.
type TokenObservation struct {
	Token       string // pair address (unique per DEX pair)
	Symbol      string // base token symbol, display only
	Price       float64
	Volume24h   float64
	Liquidity   float64 // pool liquidity depth in USD
	Change24h   float64 // 24h price change as a fraction (0.5 = +50%)
	PairCreated time.Time
	ObservedAt  time.Time
}

// AgeHours returns how old the pair was at observation time.
func (o TokenObservation) AgeHours() float64 {
	if o.PairCreated.IsZero() {
		return 0
	}
	return o.ObservedAt.Sub(o.PairCreated).Hours()
}

// Validate rejects observations the evaluator must never see.
func (o TokenObservation) Validate() error {
	if o.Token == "" {
		return fmt.Errorf("observation: empty token id")
	}
	if o.Price < 0 || o.Volume24h < 0 || o.Liquidity < 0 {
		return fmt.Errorf("observation %s: negative price/volume/liquidity", o.Token)
	}
	if o.ObservedAt.IsZero() {
		return fmt.Errorf("observation %s: missing timestamp", o.Token)
	}
	return nil
}
