package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jortega/memetrader/internal/domain"
	"github.com/jortega/memetrader/internal/ports"
)

// LoopConfig controls pacing and history depth.
type LoopConfig struct {
	TickInterval  time.Duration
	HistoryWindow int
}

// Loop drives the trading pipeline: pull observations, evaluate, decide,
// reserve, dispatch, apply, report. One tick at a time; intents for
// distinct tokens are dispatched concurrently within a tick, and at most
// one intent per token is issued per tick.
type Loop struct {
	markets  ports.MarketProvider
	eval     *Evaluator
	risk     *RiskManager
	ledger   *Ledger
	orch     *Orchestrator
	store    ports.TradeStorage // nil disables daily summaries
	notifier ports.Notifier
	history  *History
	cfg      LoopConfig
	now      func() time.Time

	// counters cover the current UTC day and reset on rollover
	day     string
	ticks   int
	intents int
	fills   int
	rejects int
}

// NewLoop wires the pipeline together.
func NewLoop(
	markets ports.MarketProvider,
	eval *Evaluator,
	risk *RiskManager,
	ledger *Ledger,
	orch *Orchestrator,
	store ports.TradeStorage,
	notifier ports.Notifier,
	cfg LoopConfig,
) *Loop {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 60 * time.Second
	}
	return &Loop{
		markets:  markets,
		eval:     eval,
		risk:     risk,
		ledger:   ledger,
		orch:     orch,
		store:    store,
		notifier: notifier,
		history:  NewHistory(cfg.HistoryWindow),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run ticks until the context is cancelled or the ledger reports an
// invariant violation. A tick in progress always completes: in-flight
// intents reach a terminal state before Run returns, so no reservation is
// ever stranded. Missed ticks are dropped, never queued.
func (l *Loop) Run(ctx context.Context) error {
	slog.Info("loop: starting", "tick_interval", l.cfg.TickInterval)

	if err := l.Tick(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("loop: stopped", "ticks", l.ticks)
			return nil
		case <-ticker.C:
			if err := l.Tick(ctx); err != nil {
				return err
			}
		}
	}
}

// Tick runs one full pipeline pass. Returns an error only on fatal
// conditions (ledger invariant violations); transient data failures skip
// the tick.
func (l *Loop) Tick(ctx context.Context) error {
	l.rollover()
	l.ticks++
	started := time.Now()

	observations, err := l.markets.FetchObservations(ctx)
	if err != nil {
		slog.Warn("loop: market data unavailable, skipping tick", "err", err)
		l.notify(ctx, ports.TickReport{View: l.ledger.Snapshot(), Skipped: true})
		return nil
	}

	observations = dedupeLatest(observations)
	view := l.ledger.Snapshot()
	observations = l.refreshHeldTokens(ctx, observations, view)
	l.updateHistory(observations, view)

	signals := l.evaluate(observations, view)
	intents := l.decideAndReserve(signals)
	records, fatal := l.dispatchAll(ctx, intents)
	if fatal != nil {
		return fmt.Errorf("loop: halting: %w", fatal)
	}

	l.report(ctx, signals, records, observations)
	slog.Debug("loop: tick complete",
		"observations", len(observations),
		"signals", len(signals),
		"intents", len(intents),
		"elapsed", time.Since(started))
	return nil
}

// rollover zeroes the daily counters when the UTC date changes, so each
// dailies row starts from zero instead of inheriting lifetime totals.
func (l *Loop) rollover() {
	today := l.now().UTC().Format("2006-01-02")
	if today == l.day {
		return
	}
	if l.day != "" {
		slog.Info("loop: daily counters reset", "date", today)
	}
	l.day = today
	l.ticks, l.intents, l.fills, l.rejects = 0, 0, 0, 0
}

// refreshHeldTokens fetches fresh observations for held tokens absent
// from the candidate set, so a stop-loss keeps firing after a token
// drops out of the searches. A failed refresh degrades to the old
// behavior for this tick.
func (l *Loop) refreshHeldTokens(ctx context.Context, observations []domain.TokenObservation, view domain.PortfolioView) []domain.TokenObservation {
	present := make(map[string]bool, len(observations))
	for _, obs := range observations {
		present[obs.Token] = true
	}

	var missing []string
	for token := range view.Positions {
		if !present[token] {
			missing = append(missing, token)
		}
	}
	if len(missing) == 0 {
		return observations
	}
	sort.Strings(missing)

	extra, err := l.markets.FetchTokens(ctx, missing)
	if err != nil {
		slog.Warn("loop: refreshing held tokens failed", "tokens", len(missing), "err", err)
		return observations
	}
	return append(observations, extra...)
}

// updateHistory appends this tick's samples and prunes tokens that left
// the candidate set without a held position.
func (l *Loop) updateHistory(observations []domain.TokenObservation, view domain.PortfolioView) {
	active := make(map[string]bool, len(observations))
	for _, obs := range observations {
		l.history.Add(obs)
		active[obs.Token] = true
	}
	l.history.Prune(active, view.Positions)
}

// evaluate scores every observation against the same portfolio snapshot.
func (l *Loop) evaluate(observations []domain.TokenObservation, view domain.PortfolioView) []domain.Signal {
	signals := make([]domain.Signal, 0, len(observations))
	for _, obs := range observations {
		if err := obs.Validate(); err != nil {
			slog.Debug("loop: dropping invalid observation", "err", err)
			continue
		}
		var position *domain.Position
		if pos, held := view.Positions[obs.Token]; held {
			position = &pos
		}
		signals = append(signals, l.eval.Evaluate(obs, l.history.Recent(obs.Token), position))
	}

	// Exits first so freed capital is visible to entry sizing, then
	// entries by confidence so the strongest candidates claim headroom.
	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].Recommend != signals[j].Recommend {
			return signals[i].Recommend == domain.RecommendExit
		}
		return signals[i].Confidence > signals[j].Confidence
	})
	return signals
}

// decideAndReserve walks the sorted signals, deciding each against a
// fresh snapshot and reserving capital immediately. The fresh snapshot
// per decision is what serializes capital allocation within the tick.
func (l *Loop) decideAndReserve(signals []domain.Signal) []domain.TradeIntent {
	var intents []domain.TradeIntent
	seen := make(map[string]bool, len(signals))

	for _, sig := range signals {
		if seen[sig.Token] {
			continue // one intent per token per tick
		}
		intent := l.risk.Decide(sig, l.ledger.Snapshot())
		if intent == nil {
			continue
		}
		if err := l.ledger.Reserve(*intent); err != nil {
			slog.Warn("loop: reserve failed, dropping intent",
				"intent", intent.ID, "token", intent.Symbol, "err", err)
			continue
		}
		seen[sig.Token] = true
		intents = append(intents, *intent)
		l.intents++
	}
	return intents
}

// dispatchAll executes all reserved intents concurrently (distinct tokens
// only, enforced upstream) and waits for every one to settle. The first
// ledger invariant violation is returned as fatal.
func (l *Loop) dispatchAll(ctx context.Context, intents []domain.TradeIntent) ([]ports.FillRecord, error) {
	if len(intents) == 0 {
		return nil, nil
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		records []ports.FillRecord
		fatal   error
	)

	for _, intent := range intents {
		wg.Add(1)
		go func(it domain.TradeIntent) {
			defer wg.Done()
			result, err := l.orch.Run(ctx, it)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, domain.ErrLedgerInvariant) && fatal == nil {
					fatal = err
				}
				slog.Error("loop: intent settlement failed", "intent", it.ID, "err", err)
				return
			}
			records = append(records, ports.FillRecord{Intent: it, Result: result})
		}(intent)
	}
	wg.Wait()

	for _, rec := range records {
		switch rec.Result.Status {
		case domain.FillStatusFilled, domain.FillStatusPartial:
			l.fills++
			slog.Info("loop: fill applied",
				"token", rec.Intent.Symbol,
				"side", rec.Intent.Side,
				"qty", rec.Result.FilledQty,
				"price", rec.Result.AvgPrice,
				"status", rec.Result.Status)
		default:
			l.rejects++
			slog.Warn("loop: intent rejected",
				"token", rec.Intent.Symbol,
				"side", rec.Intent.Side,
				"detail", rec.Result.Detail)
		}
	}
	return records, fatal
}

// report notifies the operator and persists the daily summary.
func (l *Loop) report(ctx context.Context, signals []domain.Signal, records []ports.FillRecord, observations []domain.TokenObservation) {
	view := l.ledger.Snapshot()

	lastPrice := make(map[string]float64, len(observations))
	for _, obs := range observations {
		lastPrice[obs.Token] = obs.Price
	}

	l.notify(ctx, ports.TickReport{
		View:      view,
		Signals:   signals,
		Fills:     records,
		LastPrice: lastPrice,
	})

	if l.store == nil {
		return
	}
	summary := ports.DailySummary{
		Date:          l.now().UTC().Truncate(24 * time.Hour),
		Ticks:         l.ticks,
		IntentsIssued: l.intents,
		Fills:         l.fills,
		Rejections:    l.rejects,
		RealizedPnL:   view.RealizedPnL,
		Equity:        view.Available + view.Reserved + view.Exposure(),
		OpenPositions: len(view.Positions),
	}
	if err := l.store.SaveDaily(ctx, summary); err != nil {
		slog.Warn("loop: saving daily summary failed", "err", err)
	}
}

func (l *Loop) notify(ctx context.Context, report ports.TickReport) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.Notify(ctx, report); err != nil {
		slog.Warn("loop: notifier error", "err", err)
	}
}

// dedupeLatest keeps the newest observation per token.
func dedupeLatest(observations []domain.TokenObservation) []domain.TokenObservation {
	latest := make(map[string]domain.TokenObservation, len(observations))
	order := make([]string, 0, len(observations))
	for _, obs := range observations {
		if _, seen := latest[obs.Token]; !seen {
			order = append(order, obs.Token)
		}
		if prev, seen := latest[obs.Token]; !seen || obs.ObservedAt.After(prev.ObservedAt) {
			latest[obs.Token] = obs
		}
	}
	out := make([]domain.TokenObservation, 0, len(latest))
	for _, token := range order {
		out = append(out, latest[token])
	}
	return out
}
