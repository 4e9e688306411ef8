package ports

import (
	"context"
	"time"

	"github.com/jortega/memetrader/internal/domain"
)

// FillRecord is one terminal execution outcome in the audit log.
type FillRecord struct {
	Intent domain.TradeIntent
	Result domain.FillResult
}

// DailySummary is the per-day rollup persisted after each tick.
type DailySummary struct {
	Date          time.Time
	Ticks         int
	IntentsIssued int
	Fills         int
	Rejections    int
	RealizedPnL   float64
	Equity        float64 // available + reserved + cost basis
	OpenPositions int
}

// RunStats aggregates the stored history for reporting.
type RunStats struct {
	StartDate   time.Time
	EndDate     time.Time
	TotalFills  int
	TotalBuys   int
	TotalSells  int
	Rejections  int
	RealizedPnL float64
	Dailies     []DailySummary
}

// TradeStorage persists the terminal fill audit log and daily summaries.
// The core only ever writes; the report command reads.
type TradeStorage interface {
	SaveFill(ctx context.Context, rec FillRecord) error
	GetFills(ctx context.Context, from, to time.Time) ([]FillRecord, error)

	SaveDaily(ctx context.Context, d DailySummary) error
	GetStats(ctx context.Context) (RunStats, error)

	Close() error
}
