package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jortega/memetrader/internal/domain"
	"github.com/jortega/memetrader/internal/ports"
)

func openTestDB(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func record(id string, status domain.FillStatus, executedAt time.Time) ports.FillRecord {
	return ports.FillRecord{
		Intent: domain.TradeIntent{
			ID: id, Token: "0xPEPE", Symbol: "PEPE", Side: domain.SideBuy,
			Quantity: 100, Price: 2.0, MaxSlippage: 0.02,
			CreatedAt: executedAt.Add(-time.Second),
		},
		Result: domain.FillResult{
			IntentID: id, Status: status,
			FilledQty: 100, AvgPrice: 2.01,
			ExecutedAt: executedAt,
		},
	}
}

func TestSaveFill_RoundTrip(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.SaveFill(ctx, record("i1", domain.FillStatusFilled, now)))

	got, err := store.GetFills(ctx, now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "i1", got[0].Intent.ID)
	assert.Equal(t, domain.SideBuy, got[0].Intent.Side)
	assert.Equal(t, domain.FillStatusFilled, got[0].Result.Status)
	assert.InDelta(t, 2.01, got[0].Result.AvgPrice, 1e-9)
}

func TestSaveFill_DuplicateIntentIgnored(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	rec := record("i1", domain.FillStatusFilled, now)
	require.NoError(t, store.SaveFill(ctx, rec))

	// A retried audit write for the same intent must not duplicate the row.
	rec.Result.AvgPrice = 999
	require.NoError(t, store.SaveFill(ctx, rec))

	got, err := store.GetFills(ctx, now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 2.01, got[0].Result.AvgPrice, 1e-9, "first write wins")
}

func TestGetFills_WindowAndOrder(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveFill(ctx, record("old", domain.FillStatusFilled, base.AddDate(0, 0, -30))))
	require.NoError(t, store.SaveFill(ctx, record("a", domain.FillStatusFilled, base)))
	require.NoError(t, store.SaveFill(ctx, record("b", domain.FillStatusFilled, base.Add(time.Hour))))

	got, err := store.GetFills(ctx, base.Add(-time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Intent.ID, "newest first")
	assert.Equal(t, "a", got[1].Intent.ID)
}

func TestSaveDaily_Upsert(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()
	day := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveDaily(ctx, ports.DailySummary{Date: day, Ticks: 1, Equity: 1000}))
	require.NoError(t, store.SaveDaily(ctx, ports.DailySummary{Date: day, Ticks: 5, Fills: 2, Equity: 1042.5}))

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats.Dailies, 1, "same date must update in place")
	assert.Equal(t, 5, stats.Dailies[0].Ticks)
	assert.InDelta(t, 1042.5, stats.Dailies[0].Equity, 1e-9)
}

func TestGetStats_Aggregates(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	buy := record("b1", domain.FillStatusFilled, now)
	require.NoError(t, store.SaveFill(ctx, buy))

	sell := record("s1", domain.FillStatusPartial, now.Add(time.Minute))
	sell.Intent.Side = domain.SideSell
	require.NoError(t, store.SaveFill(ctx, sell))

	reject := record("r1", domain.FillStatusRejected, now.Add(2*time.Minute))
	require.NoError(t, store.SaveFill(ctx, reject))

	day1 := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	require.NoError(t, store.SaveDaily(ctx, ports.DailySummary{Date: day1, RealizedPnL: 3.5}))
	require.NoError(t, store.SaveDaily(ctx, ports.DailySummary{Date: day2, RealizedPnL: 7.25}))

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFills)
	assert.Equal(t, 1, stats.TotalBuys)
	assert.Equal(t, 1, stats.TotalSells)
	assert.Equal(t, 1, stats.Rejections)
	assert.Equal(t, day1, stats.StartDate)
	assert.Equal(t, day2, stats.EndDate)
	assert.InDelta(t, 7.25, stats.RealizedPnL, 1e-9, "realized PnL is cumulative, latest day wins")
}

func TestGetStats_EmptyDatabase(t *testing.T) {
	store := openTestDB(t)

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalFills)
	assert.True(t, stats.StartDate.IsZero())
	assert.Empty(t, stats.Dailies)
}
