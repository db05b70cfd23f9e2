package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/tradestats/cache"
	"github.com/rustyeddy/tradestats/dataset"
	"github.com/rustyeddy/tradestats/pkg/id"
	"github.com/rustyeddy/tradestats/stats"
)

// SQLite is the trade journal. It also implements cache.Cache over the
// report_cache table.
type SQLite struct {
	db *sql.DB
}

var _ cache.Cache = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

const insertTrade = `
	INSERT INTO trades
	(trade_id, ticker, trade_date, clock_ns, gain, mae, mfe, win_loss, notes)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func tradeArgs(t TradeRecord) []any {
	return []any{
		t.TradeID, t.Ticker, nullTime(t.Date), nullClock(t.Clock),
		nullFloat(t.Gain), nullFloat(t.MAE), nullFloat(t.MFE),
		int(t.WinLoss), t.Notes,
	}
}

// RecordTrade inserts one trade. An empty TradeID is replaced by a ULID.
func (j *SQLite) RecordTrade(t TradeRecord) error {
	if t.TradeID == "" {
		t.TradeID = id.New()
	}
	_, err := j.db.Exec(insertTrade, tradeArgs(t)...)
	return err
}

// RecordTrades inserts trades in one transaction and returns the IDs
// used, minting ULIDs where TradeID is empty.
func (j *SQLite) RecordTrades(ctx context.Context, recs []TradeRecord) ([]string, error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertTrade)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]string, len(recs))
	for i, t := range recs {
		if t.TradeID == "" {
			t.TradeID = id.New()
		}
		if _, err := stmt.ExecContext(ctx, tradeArgs(t)...); err != nil {
			return nil, fmt.Errorf("insert trade %s: %w", t.TradeID, err)
		}
		ids[i] = t.TradeID
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Table loads every trade, in insertion order, as a dataset.Table laid
// out with the journal's column names.
func (j *SQLite) Table(ctx context.Context) (*dataset.Table, error) {
	recs, err := j.ListTrades(ctx)
	if err != nil {
		return nil, err
	}
	return Table(recs)
}

// cachedBody is the JSON stored in report_cache.result.
type cachedBody struct {
	Result stats.Result                   `json:"result"`
	Years  map[string]stats.PeriodMetrics `json:"years,omitempty"`
}

// Get implements cache.Cache.
func (j *SQLite) Get(ctx context.Context, key cache.Key) (cache.Entry, bool, error) {
	var (
		e    cache.Entry
		body string
	)
	row := j.db.QueryRowContext(ctx, `
		SELECT run_id, created, result FROM report_cache WHERE cache_key = ?`, string(key))
	if err := row.Scan(&e.RunID, &e.Created, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cache.Entry{}, false, nil
		}
		return cache.Entry{}, false, err
	}
	var cb cachedBody
	if err := json.Unmarshal([]byte(body), &cb); err != nil {
		return cache.Entry{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	e.Result, e.Years = cb.Result, cb.Years
	e.Created = e.Created.UTC()
	return e, true, nil
}

// Put implements cache.Cache. A second Put for the same key replaces the
// entry.
func (j *SQLite) Put(ctx context.Context, key cache.Key, e cache.Entry) error {
	body, err := json.Marshal(cachedBody{Result: e.Result, Years: e.Years})
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if e.Created.IsZero() {
		e.Created = time.Now().UTC()
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO report_cache (cache_key, run_id, created, result)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			run_id = excluded.run_id,
			created = excluded.created,
			result = excluded.result`,
		string(key), e.RunID, e.Created.UTC(), string(body),
	)
	return err
}

// ClearCache drops every cached result.
func (j *SQLite) ClearCache(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx, `DELETE FROM report_cache`)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}

func nullClock(d time.Duration) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(d), Valid: d >= 0}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
