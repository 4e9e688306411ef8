package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jortega/memetrader/internal/adapters/storage"
	"github.com/jortega/memetrader/internal/domain"
)

// runReport prints the stored trading history and exits.
func runReport(ctx context.Context, store *storage.SQLiteStorage) {
	stats, err := store.GetStats(ctx)
	if err != nil {
		slog.Error("failed to load run stats", "err", err)
		os.Exit(1)
	}

	fmt.Printf("\n══════════════ TRADING REPORT ══════════════\n\n")

	if stats.StartDate.IsZero() {
		fmt.Println("  no recorded history yet")
		return
	}

	days := int(stats.EndDate.Sub(stats.StartDate).Hours()/24) + 1
	fmt.Printf("  Period:      %s → %s (%d days)\n",
		stats.StartDate.Format("2006-01-02"),
		stats.EndDate.Format("2006-01-02"),
		days)
	fmt.Printf("  Fills:       %d (%d buys, %d sells)\n",
		stats.TotalFills, stats.TotalBuys, stats.TotalSells)
	fmt.Printf("  Rejections:  %d\n", stats.Rejections)
	fmt.Printf("  Realized:    $%.4f\n", stats.RealizedPnL)

	if len(stats.Dailies) > 0 {
		fmt.Printf("\n── DAILY BREAKDOWN ──\n")
		fmt.Printf("  %-12s %6s %8s %6s %7s %10s %10s\n",
			"Date", "Ticks", "Intents", "Fills", "Rejects", "PnL", "Equity")
		for _, d := range stats.Dailies {
			fmt.Printf("  %-12s %6d %8d %6d %7d $%9.4f $%9.2f\n",
				d.Date.Format("2006-01-02"),
				d.Ticks, d.IntentsIssued, d.Fills, d.Rejections,
				d.RealizedPnL, d.Equity)
		}
	}

	recent, err := store.GetFills(ctx, time.Now().AddDate(0, 0, -7), time.Now())
	if err == nil && len(recent) > 0 {
		fmt.Printf("\n── RECENT FILLS (last 7 days) ──\n")
		fmt.Printf("  %-20s %-5s %10s %12s %-18s\n", "Time", "Side", "Qty", "Price", "Token")
		shown := recent
		if len(shown) > 20 {
			shown = shown[:20]
		}
		for _, rec := range shown {
			if rec.Result.Status != domain.FillStatusFilled &&
				rec.Result.Status != domain.FillStatusPartial {
				continue
			}
			fmt.Printf("  %-20s %-5s %10.4g %12.6g %-18s\n",
				rec.Result.ExecutedAt.Format("2006-01-02 15:04:05"),
				rec.Intent.Side,
				rec.Result.FilledQty,
				rec.Result.AvgPrice,
				rec.Intent.Symbol)
		}
	}
	fmt.Println()
}
