package ports

import (
	"context"

	"github.com/jortega/memetrader/internal/domain"
)

// Executor submits trade intents to the exchange.
type Executor interface {
	// Submit attempts to execute the intent. Idempotent per intent ID: a
	// retried intent returns the original fill rather than executing
	// twice. May time out; the orchestrator owns retry policy.
	Submit(ctx context.Context, intent domain.TradeIntent) (domain.FillResult, error)
}
