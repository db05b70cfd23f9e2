// Package journal stores trades and renders analysis output: CSV in and
// out, a SQLite trade journal that doubles as a result cache, and
// Org-mode reports.
package journal

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/tradestats/dataset"
	"github.com/rustyeddy/tradestats/stats"
)

// Column names used when trades are turned into a dataset.Table.
const (
	ColTicker  = "ticker"
	ColDate    = "date"
	ColTime    = "time"
	ColGain    = "gain"
	ColMAE     = "mae"
	ColMFE     = "mfe"
	ColWinLoss = "win_loss"
	ColNotes   = "notes"
)

// Columns maps the journal's own layout onto stats.Columns.
var Columns = stats.Columns{
	Gain:    ColGain,
	WinLoss: ColWinLoss,
	MAE:     ColMAE,
	Date:    ColDate,
	Time:    ColTime,
}

// TradeRecord is one closed trade. Gain is a decimal fraction; MAE and
// MFE are percentage points. Unknown numerics are NaN, an unknown date is
// the zero time and an unknown time of day is dataset.NoClock.
type TradeRecord struct {
	TradeID string
	Ticker  string
	Date    time.Time
	Clock   time.Duration
	Gain    float64
	MAE     float64
	MFE     float64
	WinLoss dataset.Label
	Notes   string
}

// Journal is implemented by CSVJournal and SQLite.
type Journal interface {
	RecordTrade(TradeRecord) error
	Close() error
}

// Table lays trades out as a dataset.Table using the Col* names.
func Table(recs []TradeRecord) (*dataset.Table, error) {
	n := len(recs)
	var (
		tickers = make([]string, n)
		dates   = make([]time.Time, n)
		clocks  = make([]time.Duration, n)
		gains   = make([]float64, n)
		mae     = make([]float64, n)
		mfe     = make([]float64, n)
		labels  = make([]dataset.Label, n)
		notes   = make([]string, n)
	)
	for i, r := range recs {
		tickers[i] = r.Ticker
		dates[i] = r.Date
		clocks[i] = r.Clock
		gains[i] = r.Gain
		mae[i] = r.MAE
		mfe[i] = r.MFE
		labels[i] = r.WinLoss
		notes[i] = r.Notes
	}

	t := dataset.New(n)
	for _, set := range []func() error{
		func() error { return t.SetText(ColTicker, tickers) },
		func() error { return t.SetTime(ColDate, dates) },
		func() error { return t.SetClock(ColTime, clocks) },
		func() error { return t.SetFloat(ColGain, gains) },
		func() error { return t.SetFloat(ColMAE, mae) },
		func() error { return t.SetFloat(ColMFE, mfe) },
		func() error { return t.SetLabel(ColWinLoss, labels) },
		func() error { return t.SetText(ColNotes, notes) },
	} {
		if err := set(); err != nil {
			return nil, fmt.Errorf("build trade table: %w", err)
		}
	}
	return t, nil
}

// Records reads trades back out of a table loaded with the given column
// mapping. Columns the mapping leaves empty, or the table lacks, are
// reported as unknown. The gain column is required.
func Records(t *dataset.Table, cols stats.Columns) ([]TradeRecord, error) {
	gains, err := t.Float(cols.Gain)
	if err != nil {
		return nil, err
	}

	recs := make([]TradeRecord, t.Len())
	for i := range recs {
		recs[i] = TradeRecord{Gain: gains[i], MAE: math.NaN(), MFE: math.NaN(), Clock: dataset.NoClock}
	}
	if v, err := t.Float(cols.MAE); err == nil {
		for i := range recs {
			recs[i].MAE = v[i]
		}
	}
	if v, err := t.Float(ColMFE); err == nil {
		for i := range recs {
			recs[i].MFE = v[i]
		}
	}
	if v, err := t.Time(cols.Date); err == nil {
		for i := range recs {
			recs[i].Date = v[i]
		}
	}
	if v, err := t.Clock(cols.Time); err == nil {
		for i := range recs {
			recs[i].Clock = v[i]
		}
	}
	if v, err := t.Label(cols.WinLoss); err == nil {
		for i := range recs {
			recs[i].WinLoss = v[i]
		}
	}
	if v, err := t.Text(ColTicker); err == nil {
		for i := range recs {
			recs[i].Ticker = v[i]
		}
	}
	if v, err := t.Text(ColNotes); err == nil {
		for i := range recs {
			recs[i].Notes = v[i]
		}
	}
	return recs, nil
}
