package engine

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/jortega/memetrader/internal/domain"
)

// RiskConfig bounds how much capital a single decision may commit.
type RiskConfig struct {
	PerTokenCap      float64 // max fraction of total capital in one token
	AggregateCap     float64 // max fraction of total capital in all positions
	MinOrderNotional float64 // USD floor below which buy intents are dropped
	MaxSlippage      float64 // slippage bound stamped on every intent
}

// RiskManager turns signals into bounded trade intents. It decides
// against read-only portfolio views and counts reserved capital as
// committed exposure, so concurrent in-flight buys can never stack past
// the aggregate cap.
type RiskManager struct {
	cfg RiskConfig
}

// NewRiskManager creates a risk manager with the given limits.
func NewRiskManager(cfg RiskConfig) *RiskManager {
	return &RiskManager{cfg: cfg}
}

// Decide converts a signal into at most one trade intent. Returns nil
// when policy drops the trade (hold verdict, dust notional, no headroom,
// exit without a position). Never emits an intent whose instant full fill
// would violate the ledger's capital invariants.
func (r *RiskManager) Decide(sig domain.Signal, view domain.PortfolioView) *domain.TradeIntent {
	switch sig.Recommend {
	case domain.RecommendEnter:
		return r.decideEnter(sig, view)
	case domain.RecommendExit:
		return r.decideExit(sig, view)
	default:
		return nil
	}
}

// decideEnter sizes a buy: target value = confidence × per-token cap ×
// total capital, clipped to per-token headroom, aggregate headroom and
// affordable capital. Dust results are dropped rather than rounded up.
func (r *RiskManager) decideEnter(sig domain.Signal, view domain.PortfolioView) *domain.TradeIntent {
	if sig.Price <= 0 {
		return nil
	}

	total := view.TotalCapital
	target := sig.Confidence * r.cfg.PerTokenCap * total

	perTokenHeadroom := r.cfg.PerTokenCap*total - view.PositionValue(sig.Token)
	aggregateHeadroom := r.cfg.AggregateCap*total - view.Exposure() - view.Reserved

	notional := math.Min(target, math.Min(perTokenHeadroom, aggregateHeadroom))

	// Size down to what available capital can cover including the
	// slippage buffer; below the dust floor the intent is dropped.
	affordable := view.Available / (1 + r.cfg.MaxSlippage)
	notional = math.Min(notional, affordable)

	if notional < r.cfg.MinOrderNotional {
		return nil
	}

	return r.newIntent(sig, domain.SideBuy, notional/sig.Price)
}

// decideExit liquidates the full held quantity. No partial exits: the
// minimum-notional floor does not apply, a stop-loss must always be able
// to flatten the position.
func (r *RiskManager) decideExit(sig domain.Signal, view domain.PortfolioView) *domain.TradeIntent {
	pos, held := view.Positions[sig.Token]
	if !held || pos.Quantity <= 0 {
		return nil
	}
	return r.newIntent(sig, domain.SideSell, pos.Quantity)
}

func (r *RiskManager) newIntent(sig domain.Signal, side domain.Side, qty float64) *domain.TradeIntent {
	return &domain.TradeIntent{
		ID:          uuid.NewString(),
		Token:       sig.Token,
		Symbol:      sig.Symbol,
		Side:        side,
		Quantity:    qty,
		Price:       sig.Price,
		MaxSlippage: r.cfg.MaxSlippage,
		CreatedAt:   time.Now().UTC(),
	}
}
