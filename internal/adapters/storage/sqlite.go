// Package storage persists the trade audit log in SQLite (pure Go, no
// CGo). The core only appends; the report command reads.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jortega/memetrader/internal/domain"
	"github.com/jortega/memetrader/internal/ports"
)

const schema = `
-- One row per terminal execution outcome. intent_id is the idempotency
-- token, so a double write is structurally impossible.
CREATE TABLE IF NOT EXISTS fills (
    intent_id    TEXT PRIMARY KEY,
    token        TEXT NOT NULL,
    symbol       TEXT,
    side         TEXT NOT NULL,
    quantity     REAL NOT NULL,
    price        REAL NOT NULL,
    max_slippage REAL NOT NULL DEFAULT 0,
    created_at   DATETIME NOT NULL,
    status       TEXT NOT NULL,
    filled_qty   REAL NOT NULL DEFAULT 0,
    avg_price    REAL NOT NULL DEFAULT 0,
    detail       TEXT,
    executed_at  DATETIME NOT NULL
);

-- One row per UTC day, upserted after every tick.
CREATE TABLE IF NOT EXISTS dailies (
    date           TEXT PRIMARY KEY,
    ticks          INTEGER NOT NULL DEFAULT 0,
    intents        INTEGER NOT NULL DEFAULT 0,
    fills          INTEGER NOT NULL DEFAULT 0,
    rejections     INTEGER NOT NULL DEFAULT 0,
    realized_pnl   REAL    NOT NULL DEFAULT 0,
    equity         REAL    NOT NULL DEFAULT 0,
    open_positions INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_fills_executed ON fills(executed_at DESC);
CREATE INDEX IF NOT EXISTS idx_fills_token    ON fills(token);
`

// SQLiteStorage implements ports.TradeStorage.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at path and applies
// the schema. Use ":memory:" for tests.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// SaveFill appends one terminal result. Re-saving the same intent is a
// silent no-op (INSERT OR IGNORE on the idempotency token).
func (s *SQLiteStorage) SaveFill(ctx context.Context, rec ports.FillRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO fills
		(intent_id, token, symbol, side, quantity, price, max_slippage,
		 created_at, status, filled_qty, avg_price, detail, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Intent.ID, rec.Intent.Token, rec.Intent.Symbol, string(rec.Intent.Side),
		rec.Intent.Quantity, rec.Intent.Price, rec.Intent.MaxSlippage,
		rec.Intent.CreatedAt.UTC(), string(rec.Result.Status),
		rec.Result.FilledQty, rec.Result.AvgPrice, rec.Result.Detail,
		rec.Result.ExecutedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveFill: %w", err)
	}
	return nil
}

// GetFills returns the audit records executed in [from, to], newest first.
func (s *SQLiteStorage) GetFills(ctx context.Context, from, to time.Time) ([]ports.FillRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT intent_id, token, symbol, side, quantity, price, max_slippage,
		       created_at, status, filled_qty, avg_price, detail, executed_at
		FROM fills
		WHERE executed_at BETWEEN ? AND ?
		ORDER BY executed_at DESC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.GetFills: %w", err)
	}
	defer rows.Close()

	var records []ports.FillRecord
	for rows.Next() {
		var rec ports.FillRecord
		var side, status string
		var detail sql.NullString
		if err := rows.Scan(
			&rec.Intent.ID, &rec.Intent.Token, &rec.Intent.Symbol, &side,
			&rec.Intent.Quantity, &rec.Intent.Price, &rec.Intent.MaxSlippage,
			&rec.Intent.CreatedAt, &status,
			&rec.Result.FilledQty, &rec.Result.AvgPrice, &detail,
			&rec.Result.ExecutedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.GetFills: scan: %w", err)
		}
		rec.Intent.Side = domain.Side(side)
		rec.Result.IntentID = rec.Intent.ID
		rec.Result.Status = domain.FillStatus(status)
		rec.Result.Detail = detail.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveDaily upserts the rollup for the summary's UTC date.
func (s *SQLiteStorage) SaveDaily(ctx context.Context, d ports.DailySummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dailies
		(date, ticks, intents, fills, rejections, realized_pnl, equity, open_positions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			ticks = excluded.ticks,
			intents = excluded.intents,
			fills = excluded.fills,
			rejections = excluded.rejections,
			realized_pnl = excluded.realized_pnl,
			equity = excluded.equity,
			open_positions = excluded.open_positions`,
		d.Date.UTC().Format("2006-01-02"),
		d.Ticks, d.IntentsIssued, d.Fills, d.Rejections,
		d.RealizedPnL, d.Equity, d.OpenPositions,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveDaily: %w", err)
	}
	return nil
}

// GetStats aggregates the stored history for the report command.
func (s *SQLiteStorage) GetStats(ctx context.Context) (ports.RunStats, error) {
	var stats ports.RunStats

	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status IN ('FILLED', 'PARTIALLY_FILLED')),
			COUNT(*) FILTER (WHERE status IN ('FILLED', 'PARTIALLY_FILLED') AND side = 'BUY'),
			COUNT(*) FILTER (WHERE status IN ('FILLED', 'PARTIALLY_FILLED') AND side = 'SELL'),
			COUNT(*) FILTER (WHERE status = 'REJECTED')
		FROM fills`)
	if err := row.Scan(&stats.TotalFills, &stats.TotalBuys, &stats.TotalSells, &stats.Rejections); err != nil {
		return stats, fmt.Errorf("storage.GetStats: fills: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, ticks, intents, fills, rejections, realized_pnl, equity, open_positions
		FROM dailies ORDER BY date ASC`)
	if err != nil {
		return stats, fmt.Errorf("storage.GetStats: dailies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d ports.DailySummary
		var date string
		if err := rows.Scan(&date, &d.Ticks, &d.IntentsIssued, &d.Fills,
			&d.Rejections, &d.RealizedPnL, &d.Equity, &d.OpenPositions); err != nil {
			return stats, fmt.Errorf("storage.GetStats: scan daily: %w", err)
		}
		d.Date, _ = time.Parse("2006-01-02", date)
		stats.Dailies = append(stats.Dailies, d)
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	if n := len(stats.Dailies); n > 0 {
		stats.StartDate = stats.Dailies[0].Date
		stats.EndDate = stats.Dailies[n-1].Date
		stats.RealizedPnL = stats.Dailies[n-1].RealizedPnL
	}
	return stats, nil
}

// Close closes the database cleanly.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

var _ ports.TradeStorage = (*SQLiteStorage)(nil)
