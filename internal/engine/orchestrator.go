package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jortega/memetrader/internal/domain"
	"github.com/jortega/memetrader/internal/ports"
)

// execState tracks where an intent is in its lifecycle. Every path from
// stateDispatched reaches stateTerminal exactly once, which is what
// guarantees the one-mutation-per-reservation property.
type execState string

const (
	statePending    execState = "PENDING"
	stateDispatched execState = "DISPATCHED"
	stateTerminal   execState = "TERMINAL"
)

// OrchestratorConfig bounds the retry behavior per intent.
type OrchestratorConfig struct {
	MaxAttempts int           // total submit attempts before giving up
	BackoffBase time.Duration // first retry delay, doubled per attempt
	Timeout     time.Duration // per-attempt submit deadline
}

// Orchestrator drives reserved intents through the execution interface
// and applies exactly one ledger mutation per intent: ApplyFill on a
// confirmed fill, Release on terminal failure. Timed-out attempts are
// retried with exponential backoff reusing the same idempotency token, so
// a late-arriving original fill cannot be double-applied.
type Orchestrator struct {
	executor ports.Executor
	ledger   *Ledger
	store    ports.TradeStorage // nil disables the audit log
	cfg      OrchestratorConfig
}

// NewOrchestrator creates an orchestrator over the given executor and
// ledger. store may be nil (dry runs).
func NewOrchestrator(executor ports.Executor, ledger *Ledger, store ports.TradeStorage, cfg OrchestratorConfig) *Orchestrator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 500 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Orchestrator{executor: executor, ledger: ledger, store: store, cfg: cfg}
}

// Run executes one reserved intent to a terminal state and settles it
// against the ledger. The returned FillResult is always terminal. An
// error is returned only for ledger failures, which the loop treats as
// fatal.
func (o *Orchestrator) Run(ctx context.Context, intent domain.TradeIntent) (domain.FillResult, error) {
	state := statePending
	result := o.dispatch(ctx, intent, &state)
	state = stateTerminal

	var ledgerErr error
	switch result.Status {
	case domain.FillStatusFilled, domain.FillStatusPartial:
		ledgerErr = o.ledger.ApplyFill(intent, result)
	default:
		ledgerErr = o.ledger.Release(intent)
	}
	if ledgerErr != nil {
		return result, fmt.Errorf("exec: settle intent %s: %w", intent.ID, ledgerErr)
	}

	o.audit(ctx, intent, result)
	return result, nil
}

// dispatch runs the attempt/backoff machine and always returns a
// terminal result. Exhausted retries and shutdown mid-retry terminate as
// Rejected so the reservation is reclaimed.
func (o *Orchestrator) dispatch(ctx context.Context, intent domain.TradeIntent, state *execState) domain.FillResult {
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		*state = stateDispatched

		attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
		res, err := o.executor.Submit(attemptCtx, intent)
		cancel()

		switch {
		case err == nil && res.Status.Terminal():
			res.IntentID = intent.ID
			return res

		case err == nil && res.Status == domain.FillStatusTimedOut,
			errors.Is(err, context.DeadlineExceeded),
			errors.Is(err, domain.ErrExecutionTimeout):
			slog.Warn("exec: attempt timed out",
				"intent", intent.ID,
				"token", intent.Symbol,
				"attempt", attempt,
				"max_attempts", o.cfg.MaxAttempts)
			if attempt == o.cfg.MaxAttempts {
				break
			}
			if !o.backoff(ctx, attempt) {
				return rejected(intent, "shutdown during retry backoff")
			}

		case err != nil:
			return rejected(intent, err.Error())

		default:
			// Non-terminal status without error; the executor misbehaved.
			return rejected(intent, fmt.Sprintf("unexpected status %s", res.Status))
		}
	}
	return rejected(intent, "retries exhausted: "+domain.ErrExecutionTimeout.Error())
}

// backoff sleeps the exponential delay for the given attempt. Returns
// false if the context was cancelled first.
func (o *Orchestrator) backoff(ctx context.Context, attempt int) bool {
	delay := o.cfg.BackoffBase << (attempt - 1)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// audit appends the terminal result to the fill log. Audit failures are
// logged, never fatal: capital accounting already settled.
func (o *Orchestrator) audit(ctx context.Context, intent domain.TradeIntent, result domain.FillResult) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveFill(ctx, ports.FillRecord{Intent: intent, Result: result}); err != nil {
		slog.Warn("exec: audit log write failed", "intent", intent.ID, "err", err)
	}
}

func rejected(intent domain.TradeIntent, detail string) domain.FillResult {
	return domain.FillResult{
		IntentID:   intent.ID,
		Status:     domain.FillStatusRejected,
		Detail:     detail,
		ExecutedAt: time.Now().UTC(),
	}
}
