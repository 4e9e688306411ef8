// Package paper simulates trade execution against observed prices so the
// agent can run end to end without touching an exchange.
package paper

import (
	"context"
	"sync"
	"time"

	"github.com/jortega/memetrader/internal/domain"
	"github.com/jortega/memetrader/internal/ports"
)

// Config tunes the simulated fill behavior.
type Config struct {
	Slippage  float64       // fill price deviation applied against the trader
	FillRatio float64       // fraction of quantity filled; < 1 produces partials
	Latency   time.Duration // simulated exchange latency per submit
}

// Executor implements ports.Executor with deterministic simulated fills.
// Results are memoized per intent ID: a retried intent returns the
// original fill, which is exactly the idempotency contract the
// orchestrator relies on.
type Executor struct {
	mu      sync.Mutex
	results map[string]domain.FillResult
	cfg     Config
}

// New creates a paper executor. FillRatio defaults to 1 (full fills).
func New(cfg Config) *Executor {
	if cfg.FillRatio <= 0 || cfg.FillRatio > 1 {
		cfg.FillRatio = 1
	}
	return &Executor{
		results: make(map[string]domain.FillResult),
		cfg:     cfg,
	}
}

// Submit simulates execution. The configured slippage is capped at the
// intent's bound: worse-than-bound slippage is what a real venue would
// reject, so the simulated fill always lands inside it.
func (e *Executor) Submit(ctx context.Context, intent domain.TradeIntent) (domain.FillResult, error) {
	e.mu.Lock()
	if prior, done := e.results[intent.ID]; done {
		e.mu.Unlock()
		return prior, nil
	}
	e.mu.Unlock()

	if e.cfg.Latency > 0 {
		timer := time.NewTimer(e.cfg.Latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			// Attempt timed out; nothing was recorded, so a retry with
			// the same intent ID executes cleanly.
			return domain.FillResult{
				IntentID:   intent.ID,
				Status:     domain.FillStatusTimedOut,
				Detail:     ctx.Err().Error(),
				ExecutedAt: time.Now().UTC(),
			}, nil
		}
	}

	slip := e.cfg.Slippage
	if slip > intent.MaxSlippage {
		slip = intent.MaxSlippage
	}
	price := intent.Price
	if intent.Side == domain.SideBuy {
		price *= 1 + slip
	} else {
		price *= 1 - slip
	}

	status := domain.FillStatusFilled
	if e.cfg.FillRatio < 1 {
		status = domain.FillStatusPartial
	}

	result := domain.FillResult{
		IntentID:   intent.ID,
		Status:     status,
		FilledQty:  intent.Quantity * e.cfg.FillRatio,
		AvgPrice:   price,
		ExecutedAt: time.Now().UTC(),
	}

	e.mu.Lock()
	e.results[intent.ID] = result
	e.mu.Unlock()
	return result, nil
}

var _ ports.Executor = (*Executor)(nil)
