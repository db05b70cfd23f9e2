package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/tradestats/dataset"
	"github.com/rustyeddy/tradestats/stats"
)

var tradeHeader = []string{ColTicker, ColDate, ColTime, ColGain, ColMAE, ColMFE, ColWinLoss, ColNotes, "trade_id"}

// ReadTradesCSV loads a trade export. The columns named in cols are parsed
// by role: gain and mae as numbers, date as a date, time as a time of day
// and win_loss as a label. Any other column is numeric when every
// non-blank cell parses as a number, and text otherwise. A named column
// missing from the header is an error wrapping dataset.ErrColumnNotFound.
func ReadTradesCSV(r io.Reader, cols stats.Columns) (*dataset.Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	for _, name := range []string{cols.Gain, cols.MAE, cols.Date, cols.Time, cols.WinLoss} {
		if name == "" {
			continue
		}
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: %q", dataset.ErrColumnNotFound, name)
		}
	}

	t := dataset.New(len(rows))
	for c, name := range header {
		if name == "" {
			continue
		}
		cells := make([]string, len(rows))
		for i, row := range rows {
			cells[i] = row[c]
		}

		var err error
		switch name {
		case cols.Gain, cols.MAE:
			err = loadFloats(t, name, cells)
		case cols.Date:
			err = loadDates(t, name, cells)
		case cols.Time:
			err = loadClocks(t, name, cells)
		case cols.WinLoss:
			err = loadLabels(t, name, cells)
		default:
			if err = loadFloats(t, name, cells); err != nil {
				err = t.SetText(name, cells)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

func loadFloats(t *dataset.Table, name string, cells []string) error {
	v := make([]float64, len(cells))
	for i, s := range cells {
		f, err := dataset.ParseFloat(s)
		if err != nil {
			return cellError(i, name, err)
		}
		v[i] = f
	}
	return t.SetFloat(name, v)
}

func loadDates(t *dataset.Table, name string, cells []string) error {
	v := make([]time.Time, len(cells))
	for i, s := range cells {
		d, err := dataset.ParseDate(s)
		if err != nil {
			return cellError(i, name, err)
		}
		v[i] = d
	}
	return t.SetTime(name, v)
}

func loadClocks(t *dataset.Table, name string, cells []string) error {
	v := make([]time.Duration, len(cells))
	for i, s := range cells {
		c, err := dataset.ParseClock(s)
		if err != nil {
			return cellError(i, name, err)
		}
		v[i] = c
	}
	return t.SetClock(name, v)
}

func loadLabels(t *dataset.Table, name string, cells []string) error {
	v := make([]dataset.Label, len(cells))
	for i, s := range cells {
		l, err := dataset.ParseLabel(s)
		if err != nil {
			return cellError(i, name, err)
		}
		v[i] = l
	}
	return t.SetLabel(name, v)
}

// cellError numbers rows the way a spreadsheet does, header included.
func cellError(i int, name string, err error) error {
	return fmt.Errorf("row %d column %q: %w", i+2, name, err)
}

// CSVJournal writes trades in the layout ReadTradesCSV reads with Columns.
type CSVJournal struct {
	trades *csv.Writer
	tf     *os.File
}

func NewCSV(tradesPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}

	tw := csv.NewWriter(tf)
	if err := tw.Write(tradeHeader); err != nil {
		tf.Close()
		return nil, err
	}
	tw.Flush()
	if err := tw.Error(); err != nil {
		tf.Close()
		return nil, err
	}

	return &CSVJournal{trades: tw, tf: tf}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	date := ""
	if !t.Date.IsZero() {
		date = t.Date.UTC().Format("2006-01-02")
	}
	err := j.trades.Write([]string{
		t.Ticker,
		date,
		clock(t.Clock),
		exact(t.Gain),
		exact(t.MAE),
		exact(t.MFE),
		t.WinLoss.String(),
		t.Notes,
		t.TradeID,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	return j.tf.Close()
}

// WriteEquityCSV writes the flat and compounded curves side by side, one
// row per trade index. A curve that is shorter or absent leaves its
// cells blank.
func WriteEquityCSV(w io.Writer, flat, kelly []stats.EquityPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"trade_index", "flat_equity", "flat_position", "kelly_equity", "kelly_position"}); err != nil {
		return err
	}

	n := max(len(flat), len(kelly))
	for i := 0; i < n; i++ {
		row := []string{strconv.Itoa(i), "", "", "", ""}
		if i < len(flat) {
			row[1], row[2] = f(flat[i].Equity), f(flat[i].PositionSize)
		}
		if i < len(kelly) {
			row[3], row[4] = f(kelly[i].Equity), f(kelly[i].PositionSize)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// f is the fixed six-decimal form used for equity curves.
func f(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'f', 6, 64)
}

// exact writes the shortest form that parses back to x.
func exact(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func clock(d time.Duration) string {
	if d < 0 {
		return ""
	}
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
