package engine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jortega/memetrader/internal/domain"
)

// Quantities below this are treated as zero when deciding whether a
// position row should be removed.
const qtyEpsilon = 1e-9

// invariantEpsilon absorbs float64 rounding in the capital identity.
const invariantEpsilon = 1e-6

// Ledger is the single point of truth for capital and position
// accounting. All mutation goes through Reserve, ApplyFill and Release;
// every other component sees read-only snapshots.
//
// Invariant: available + reserved + cost basis of open positions equals
// total capital at all times. Total capital moves only by realized P&L.
type Ledger struct {
	mu sync.Mutex

	available float64
	reserved  float64
	total     float64
	realized  float64
	positions map[string]domain.Position

	reservations map[string]float64 // intent ID → reserved amount
	applied      map[string]bool    // intent IDs with a terminal mutation
}

// NewLedger creates a ledger holding the full initial capital as
// available cash.
func NewLedger(initialCapital float64) *Ledger {
	return &Ledger{
		available:    initialCapital,
		total:        initialCapital,
		positions:    make(map[string]domain.Position),
		reservations: make(map[string]float64),
		applied:      make(map[string]bool),
	}
}

// Snapshot returns a read-only copy of the portfolio state.
func (l *Ledger) Snapshot() domain.PortfolioView {
	l.mu.Lock()
	defer l.mu.Unlock()

	positions := make(map[string]domain.Position, len(l.positions))
	for k, v := range l.positions {
		positions[k] = v
	}
	return domain.PortfolioView{
		Positions:    positions,
		Available:    l.available,
		Reserved:     l.reserved,
		TotalCapital: l.total,
		RealizedPnL:  l.realized,
		TakenAt:      time.Now().UTC(),
	}
}

// Reserve debits available capital for the intent before dispatch. Sell
// intents reserve no cash but still register a reservation so every
// dispatched intent has exactly one matching apply or release.
func (l *Ledger) Reserve(intent domain.TradeIntent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.reservations[intent.ID]; exists || l.applied[intent.ID] {
		return fmt.Errorf("ledger.Reserve: intent %s already reserved", intent.ID)
	}

	// The epsilon tolerates rounding when risk sizes an intent exactly to
	// the available balance.
	amount := intent.ReserveAmount()
	if amount > l.available+invariantEpsilon {
		return fmt.Errorf("ledger.Reserve: intent %s needs %.2f, available %.2f",
			intent.ID, amount, l.available)
	}
	if intent.Side == domain.SideSell {
		pos, ok := l.positions[intent.Token]
		if !ok || pos.Quantity+qtyEpsilon < intent.Quantity {
			return fmt.Errorf("ledger.Reserve: sell %s exceeds held quantity", intent.Token)
		}
	}

	l.available -= amount
	l.reserved += amount
	l.reservations[intent.ID] = amount
	return l.checkInvariant("Reserve", intent.ID)
}

// ApplyFill applies a confirmed (possibly partial) fill. Idempotent:
// applying the same intent twice has no additional effect. Rejected and
// TimedOut results must go through Release instead.
func (l *Ledger) ApplyFill(intent domain.TradeIntent, fill domain.FillResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.applied[intent.ID] {
		return nil
	}
	reservation, ok := l.reservations[intent.ID]
	if !ok {
		return fmt.Errorf("ledger.ApplyFill: intent %s: %w", intent.ID, domain.ErrUnknownIntent)
	}
	if fill.Status != domain.FillStatusFilled && fill.Status != domain.FillStatusPartial {
		return fmt.Errorf("ledger.ApplyFill: intent %s has non-fill status %s", intent.ID, fill.Status)
	}

	if fill.FilledQty <= qtyEpsilon {
		// Nothing actually traded; same as a release.
		l.settle(intent.ID, reservation)
		return l.checkInvariant("ApplyFill", intent.ID)
	}

	switch intent.Side {
	case domain.SideBuy:
		if err := l.applyBuy(intent, fill, reservation); err != nil {
			return err
		}
	case domain.SideSell:
		if err := l.applySell(intent, fill, reservation); err != nil {
			return err
		}
	default:
		return fmt.Errorf("ledger.ApplyFill: intent %s has unknown side %q", intent.ID, intent.Side)
	}

	delete(l.reservations, intent.ID)
	l.applied[intent.ID] = true
	return l.checkInvariant("ApplyFill", intent.ID)
}

// applyBuy moves cost basis from the reservation into the position at a
// quantity-weighted average entry price and refunds the unspent part.
func (l *Ledger) applyBuy(intent domain.TradeIntent, fill domain.FillResult, reservation float64) error {
	cost := fill.FilledQty * fill.AvgPrice
	if cost > reservation+invariantEpsilon {
		return fmt.Errorf("ledger: buy %s cost %.4f exceeds reservation %.4f: %w",
			intent.ID, cost, reservation, domain.ErrLedgerInvariant)
	}

	l.reserved -= reservation
	l.available += reservation - cost

	pos, held := l.positions[intent.Token]
	if !held {
		l.positions[intent.Token] = domain.Position{
			Token:         intent.Token,
			Symbol:        intent.Symbol,
			Quantity:      fill.FilledQty,
			AvgEntryPrice: fill.AvgPrice,
			OpenedAt:      fill.ExecutedAt,
		}
		return nil
	}

	newQty := pos.Quantity + fill.FilledQty
	pos.AvgEntryPrice = (pos.CostBasis() + cost) / newQty
	pos.Quantity = newQty
	l.positions[intent.Token] = pos
	return nil
}

// applySell returns principal plus realized P&L to available capital and
// shrinks or removes the position.
func (l *Ledger) applySell(intent domain.TradeIntent, fill domain.FillResult, reservation float64) error {
	pos, held := l.positions[intent.Token]
	if !held || pos.Quantity+qtyEpsilon < fill.FilledQty {
		return fmt.Errorf("ledger: sell %s fill %.6f exceeds held quantity: %w",
			intent.ID, fill.FilledQty, domain.ErrLedgerInvariant)
	}

	proceeds := fill.FilledQty * fill.AvgPrice
	realized := (fill.AvgPrice - pos.AvgEntryPrice) * fill.FilledQty

	l.reserved -= reservation
	l.available += reservation + proceeds
	l.total += realized
	l.realized += realized

	pos.Quantity -= fill.FilledQty
	if pos.Quantity <= qtyEpsilon {
		delete(l.positions, intent.Token)
	} else {
		l.positions[intent.Token] = pos
	}
	return nil
}

// Release returns the reservation to available capital on terminal
// failure. Idempotent, and a no-op for intents already applied.
func (l *Ledger) Release(intent domain.TradeIntent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.applied[intent.ID] {
		return nil
	}
	reservation, ok := l.reservations[intent.ID]
	if !ok {
		return fmt.Errorf("ledger.Release: intent %s: %w", intent.ID, domain.ErrUnknownIntent)
	}
	l.settle(intent.ID, reservation)
	return l.checkInvariant("Release", intent.ID)
}

// settle credits a reservation back and marks the intent terminal.
// Caller holds the mutex.
func (l *Ledger) settle(intentID string, reservation float64) {
	l.available += reservation
	l.reserved -= reservation
	delete(l.reservations, intentID)
	l.applied[intentID] = true
}

// checkInvariant verifies the capital identity. Caller holds the mutex.
func (l *Ledger) checkInvariant(op, intentID string) error {
	basis := 0.0
	for _, p := range l.positions {
		basis += p.CostBasis()
	}
	diff := l.available + l.reserved + basis - l.total
	if math.Abs(diff) > invariantEpsilon {
		return fmt.Errorf("ledger.%s: intent %s: off by %.9f: %w",
			op, intentID, diff, domain.ErrLedgerInvariant)
	}
	if l.available < -invariantEpsilon || l.reserved < -invariantEpsilon {
		return fmt.Errorf("ledger.%s: intent %s: negative capital (avail %.9f reserved %.9f): %w",
			op, intentID, l.available, l.reserved, domain.ErrLedgerInvariant)
	}
	return nil
}
