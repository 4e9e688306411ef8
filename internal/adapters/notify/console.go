// Package notify renders tick reports to the console. Read-only: the
// dashboard layer never writes back into the core.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/jortega/memetrader/internal/domain"
	"github.com/jortega/memetrader/internal/ports"
)

// Console implements ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole creates a notifier writing to stdout. table selects the full
// table view over the compact one-liner.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify prints the tick outcome in the configured mode.
func (c *Console) Notify(_ context.Context, report ports.TickReport) error {
	if report.Skipped {
		fmt.Fprintf(c.out, "[%s] tick skipped — market data unavailable\n",
			time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(report)
	} else {
		c.printCompact(report)
	}
	return nil
}

// printCompact prints the essentials in one line.
func (c *Console) printCompact(report ports.TickReport) {
	enters, exits := countVerdicts(report.Signals)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d signals → E:%d X:%d | pos:%d avail:$%.2f pnl:$%.2f",
		time.Now().Format("15:04:05"),
		len(report.Signals), enters, exits,
		len(report.View.Positions),
		report.View.Available,
		report.View.RealizedPnL)

	for _, rec := range report.Fills {
		fmt.Fprintf(&sb, " | %s %s %.4g@%.6g %s",
			rec.Intent.Side, compactName(rec.Intent.Symbol, 10),
			rec.Result.FilledQty, rec.Result.AvgPrice, rec.Result.Status)
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull prints the positions table and the top signals.
func (c *Console) printFull(report ports.TickReport) {
	view := report.View

	fmt.Fprintf(c.out, "\n[%s] capital: $%.2f available, $%.2f reserved, $%.2f in positions | realized P&L: $%.2f\n",
		time.Now().Format("15:04:05"),
		view.Available, view.Reserved, view.Exposure(), view.RealizedPnL)

	c.printPositions(view, report.LastPrice)
	c.printSignals(report.Signals)
	c.printFills(report.Fills)
}

func (c *Console) printPositions(view domain.PortfolioView, lastPrice map[string]float64) {
	if len(view.Positions) == 0 {
		fmt.Fprintln(c.out, "  no open positions")
		return
	}

	tokens := make([]string, 0, len(view.Positions))
	for token := range view.Positions {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	table := tablewriter.NewWriter(c.out)
	table.Header("Token", "Qty", "Entry", "Last", "Cost$", "uPnL$", "Age")
	for _, token := range tokens {
		pos := view.Positions[token]
		last := lastPrice[token]
		upnl := "n/a"
		lastLabel := "n/a"
		if last > 0 {
			upnl = fmt.Sprintf("%.2f", pos.UnrealizedPnL(last))
			lastLabel = fmt.Sprintf("%.6g", last)
		}
		table.Append(
			compactName(pos.Symbol, 12),
			fmt.Sprintf("%.4g", pos.Quantity),
			fmt.Sprintf("%.6g", pos.AvgEntryPrice),
			lastLabel,
			fmt.Sprintf("%.2f", pos.CostBasis()),
			upnl,
			time.Since(pos.OpenedAt).Truncate(time.Minute).String(),
		)
	}
	table.Render()
}

func (c *Console) printSignals(signals []domain.Signal) {
	if len(signals) == 0 {
		return
	}

	shown := signals
	if len(shown) > 10 {
		shown = shown[:10]
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Token", "Conf", "Verdict", "Reason", "Price")
	for _, sig := range shown {
		table.Append(
			compactName(sig.Symbol, 12),
			fmt.Sprintf("%.2f", sig.Confidence),
			string(sig.Recommend),
			sig.Reason,
			fmt.Sprintf("%.6g", sig.Price),
		)
	}
	table.Render()
}

func (c *Console) printFills(fills []ports.FillRecord) {
	for _, rec := range fills {
		switch rec.Result.Status {
		case domain.FillStatusFilled, domain.FillStatusPartial:
			fmt.Fprintf(c.out, "  %s %s %s %.4g @ %.6g\n",
				rec.Result.Status, rec.Intent.Side,
				compactName(rec.Intent.Symbol, 12),
				rec.Result.FilledQty, rec.Result.AvgPrice)
		default:
			fmt.Fprintf(c.out, "  %s %s %s — %s\n",
				rec.Result.Status, rec.Intent.Side,
				compactName(rec.Intent.Symbol, 12),
				rec.Result.Detail)
		}
	}
}

func countVerdicts(signals []domain.Signal) (enters, exits int) {
	for _, sig := range signals {
		switch sig.Recommend {
		case domain.RecommendEnter:
			enters++
		case domain.RecommendExit:
			exits++
		}
	}
	return enters, exits
}

func compactName(name string, maxLen int) string {
	if name == "" {
		return "?"
	}
	if len(name) > maxLen {
		return name[:maxLen-1] + "…"
	}
	return name
}

var _ ports.Notifier = (*Console)(nil)
