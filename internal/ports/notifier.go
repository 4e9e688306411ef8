package ports

import (
	"context"

	"github.com/jortega/memetrader/internal/domain"
)

// TickReport is the read-only view handed to the notifier after each
// tick. The rendering layer never writes back into the core.
type TickReport struct {
	View      domain.PortfolioView
	Signals   []domain.Signal
	Fills     []FillRecord
	LastPrice map[string]float64 // token → latest observed price
	Skipped   bool               // tick skipped (data unavailable)
}

// Notifier renders the tick outcome for the operator.
type Notifier interface {
	Notify(ctx context.Context, report TickReport) error
}
