package domain

import "errors"

// Error taxonomy for the trading core. Transient conditions (data, time
// outs) are absorbed by the loop; ErrLedgerInvariant is fatal and halts
// the loop rather than continuing with corrupted capital accounting.
var (
	// ErrDataUnavailable marks a failed market-data fetch. The loop skips
	// the tick and carries on.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrExecutionTimeout marks an execution attempt that exceeded its
	// deadline. Retried by the orchestrator.
	ErrExecutionTimeout = errors.New("execution timed out")

	// ErrExecutionRejected marks a terminally rejected intent. Reserved
	// capital is reclaimed automatically.
	ErrExecutionRejected = errors.New("execution rejected")

	// ErrLedgerInvariant indicates a capital accounting defect. Fatal.
	ErrLedgerInvariant = errors.New("ledger invariant violation")

	// ErrUnknownIntent is returned when a fill or release references an
	// intent the ledger never reserved.
	ErrUnknownIntent = errors.New("unknown intent")
)
