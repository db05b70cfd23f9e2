package stats

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rustyeddy/tradestats/dataset"
)

const (
	DefaultBreakdownStake   = 1000.0
	DefaultBreakdownCapital = 10000.0
)

// MonthOrder lists the month keys used by Monthly, January first.
var MonthOrder = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// BreakdownOptions configures Yearly and Monthly. Columns.Date is required.
type BreakdownOptions struct {
	Columns        Columns
	Derived        bool
	BreakevenIsWin bool
	Adjustment     *AdjustmentParams
	// FlatStake and StartCapital drive the flat-stake curve used for
	// drawdown. Zero selects the defaults.
	FlatStake    float64
	StartCapital float64
}

func (o *BreakdownOptions) defaults() error {
	if o.Columns.Date == "" {
		return fmt.Errorf("%w: date column is required for a period breakdown", ErrInvalidParams)
	}
	if o.FlatStake == 0 {
		o.FlatStake = DefaultBreakdownStake
	}
	if o.StartCapital == 0 {
		o.StartCapital = DefaultBreakdownCapital
	}
	if o.FlatStake < 0 || o.StartCapital < 0 {
		return fmt.Errorf("%w: stake and capital must be positive", ErrInvalidParams)
	}
	if o.Adjustment != nil {
		return o.Adjustment.Validate()
	}
	return nil
}

// Yearly breaks the history down by calendar year, keyed "2024".
func Yearly(t *dataset.Table, opts BreakdownOptions) (map[string]PeriodMetrics, error) {
	return breakdown(t, opts, func(ts time.Time) (string, bool) {
		return strconv.Itoa(ts.Year()), true
	})
}

// Monthly breaks one year down by month, keyed "Jan".."Dec". Drawdowns
// still come from the curve over the full history.
func Monthly(t *dataset.Table, year int, opts BreakdownOptions) (map[string]PeriodMetrics, error) {
	return breakdown(t, opts, func(ts time.Time) (string, bool) {
		if ts.Year() != year {
			return "", false
		}
		return MonthOrder[ts.Month()-1], true
	})
}

// AvailableYears lists, ascending, the distinct years of rows that carry
// a date and, when cols.Gain is set, a gain. These match the keys Yearly
// returns for the same columns.
func AvailableYears(t *dataset.Table, cols Columns) ([]int, error) {
	if cols.Date == "" {
		return nil, fmt.Errorf("%w: date column is required", ErrInvalidParams)
	}
	dates, err := t.Time(cols.Date)
	if err != nil {
		return nil, err
	}
	var rows []int
	if cols.Gain != "" {
		if rows, err = t.Valid(cols.Gain); err != nil {
			return nil, err
		}
	} else {
		rows = make([]int, len(dates))
		for i := range rows {
			rows[i] = i
		}
	}

	seen := map[int]bool{}
	var years []int
	for _, i := range rows {
		d := dates[i]
		if d.IsZero() || seen[d.Year()] {
			continue
		}
		seen[d.Year()] = true
		years = append(years, d.Year())
	}
	sort.Ints(years)
	return years, nil
}

func breakdown(t *dataset.Table, opts BreakdownOptions, key func(time.Time) (string, bool)) (map[string]PeriodMetrics, error) {
	if err := opts.defaults(); err != nil {
		return nil, err
	}
	s, err := prepare(t, opts.Columns, opts.Adjustment)
	if err != nil {
		return nil, err
	}

	// Undated rows sort last and belong to no period.
	n := 0
	for n < s.count() && !s.times[n].IsZero() {
		n++
	}
	pct := toPct(s.gains[:n])
	var labels []dataset.Label
	if s.labels != nil {
		labels = s.labels[:n]
	}
	wins := Classify(s.gains[:n], labels, Classification{
		Adjusted:       s.adjusted,
		Derived:        opts.Derived,
		BreakevenIsWin: opts.BreakevenIsWin,
	})

	curve := SimulateFlatStake(pct, opts.FlatStake, opts.StartCapital)
	peaks := RunningPeak(curve)

	groups := map[string][]int{}
	for i := 0; i < n; i++ {
		if k, ok := key(s.times[i]); ok {
			groups[k] = append(groups[k], i)
		}
	}

	out := make(map[string]PeriodMetrics, len(groups))
	for k, rows := range groups {
		out[k] = period(k, rows, pct, wins, curve, peaks, opts.FlatStake)
	}
	return out, nil
}

// period builds one PeriodMetrics. rows index trades; trade i sits at
// curve[i+1]. Drawdown is measured against the all-time running peak.
func period(name string, rows []int, pct []float64, wins []bool, curve []EquityPoint, peaks []float64, stake float64) PeriodMetrics {
	var (
		gains, winners, losers []float64
		maxDD, ddPeak          float64
	)
	for _, i := range rows {
		gains = append(gains, pct[i])
		if wins[i] {
			winners = append(winners, pct[i])
		} else {
			losers = append(losers, pct[i])
		}
		if dd := peaks[i+1] - curve[i+1].Equity; dd > maxDD {
			maxDD = dd
			ddPeak = peaks[i+1]
		}
	}

	total := sum(gains)
	wr := float64(len(winners)) / float64(len(rows))
	pm := PeriodMetrics{
		Period:         name,
		Count:          len(rows),
		TotalGainPct:   ptr(total),
		TotalFlatStake: ptr(stake * total / 100),
		MaxDrawdown:    ptr(maxDD),
		MaxDrawdownPct: drawdownPct(maxDD, ddPeak),
		WinRate:        ptr(wr * 100),
	}

	ev := 0.0
	if len(winners) > 0 {
		pm.AvgWinnerPct = ptr(mean(winners))
		ev += wr * *pm.AvgWinnerPct
	}
	if len(losers) > 0 {
		pm.AvgLoserPct = ptr(mean(losers))
		ev += (1 - wr) * *pm.AvgLoserPct
	}
	pm.EVPct = ptr(ev)
	return pm
}
