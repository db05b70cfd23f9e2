package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rustyeddy/tradestats/dataset"
)

const selectTrades = `
	SELECT trade_id, ticker, trade_date, clock_ns, gain, mae, mfe, win_loss, notes
	FROM trades`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var (
		rec           TradeRecord
		date          sql.NullTime
		clockNS       sql.NullInt64
		gain, mae, fe sql.NullFloat64
		label         int
	)
	if err := s.Scan(&rec.TradeID, &rec.Ticker, &date, &clockNS, &gain, &mae, &fe, &label, &rec.Notes); err != nil {
		return TradeRecord{}, err
	}
	if date.Valid {
		rec.Date = date.Time.UTC()
	}
	rec.Clock = dataset.NoClock
	if clockNS.Valid {
		rec.Clock = time.Duration(clockNS.Int64)
	}
	rec.Gain = floatOrNaN(gain)
	rec.MAE = floatOrNaN(mae)
	rec.MFE = floatOrNaN(fe)
	rec.WinLoss = dataset.Label(label)
	return rec, nil
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(ctx context.Context, tradeID string) (TradeRecord, error) {
	row := j.db.QueryRowContext(ctx, selectTrades+` WHERE trade_id = ?`, tradeID)
	rec, err := scanTrade(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTrades returns every trade in insertion order.
func (j *SQLite) ListTrades(ctx context.Context) ([]TradeRecord, error) {
	return j.query(ctx, selectTrades+` ORDER BY rowid ASC`)
}

// ListTradesBetween returns dated trades whose date is within [start, end),
// oldest first. Undated trades are never returned.
func (j *SQLite) ListTradesBetween(ctx context.Context, start, end time.Time) ([]TradeRecord, error) {
	return j.query(ctx, selectTrades+`
		WHERE trade_date >= ? AND trade_date < ?
		ORDER BY trade_date ASC, clock_ns ASC, rowid ASC`, start.UTC(), end.UTC())
}

// CountTrades returns the number of journaled trades.
func (j *SQLite) CountTrades(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`).Scan(&n)
	return n, err
}

func (j *SQLite) query(ctx context.Context, q string, args ...any) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
