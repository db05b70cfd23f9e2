package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/tradestats/dataset"
)

// Columns names the table columns used by a calculation. Only Gain is
// required.
type Columns struct {
	Gain    string `json:"gain" yaml:"gain"`
	WinLoss string `json:"win_loss,omitempty" yaml:"win_loss,omitempty"`
	MAE     string `json:"mae,omitempty" yaml:"mae,omitempty"`
	Date    string `json:"date,omitempty" yaml:"date,omitempty"`
	Time    string `json:"time,omitempty" yaml:"time,omitempty"`
}

// Options configures Calculate.
type Options struct {
	Columns        Columns
	Derived        bool
	BreakevenIsWin bool
	// Adjustment is applied only when Columns.MAE is also set.
	Adjustment *AdjustmentParams
	Sizing     SizingParams
}

// Result is the output of Calculate. Curves are nil when the matching
// regime did not run.
type Result struct {
	Metrics     TradingMetrics `json:"metrics"`
	FlatEquity  []EquityPoint  `json:"flat_equity,omitempty"`
	KellyEquity []EquityPoint  `json:"kelly_equity,omitempty"`
}

// series is the trade sequence after ordering, NaN filtering and
// adjustment. gains stay decimal.
type series struct {
	gains    []float64
	mae      []float64
	labels   []dataset.Label
	times    []time.Time
	adjusted bool
}

func (s *series) count() int { return len(s.gains) }

// prepare resolves every named column up front so a bad mapping fails
// before any computation, then sorts chronologically, drops rows with no
// gain and applies the adjustment once.
func prepare(t *dataset.Table, cols Columns, adj *AdjustmentParams) (*series, error) {
	if cols.Gain == "" {
		return nil, fmt.Errorf("%w: gain column is required", ErrInvalidParams)
	}
	gains, err := t.Float(cols.Gain)
	if err != nil {
		return nil, err
	}
	var mae []float64
	if cols.MAE != "" {
		if mae, err = t.Float(cols.MAE); err != nil {
			return nil, err
		}
	}
	var labels []dataset.Label
	if cols.WinLoss != "" {
		if labels, err = t.Label(cols.WinLoss); err != nil {
			return nil, err
		}
	}
	var stamps []time.Time
	if cols.Date != "" || cols.Time != "" {
		if stamps, err = t.Timestamps(cols.Date, cols.Time); err != nil {
			return nil, err
		}
	}
	order, err := t.ChronologicalOrder(cols.Date, cols.Time)
	if err != nil {
		return nil, err
	}

	s := &series{adjusted: adj != nil && mae != nil}
	for _, i := range order {
		if math.IsNaN(gains[i]) {
			continue
		}
		s.gains = append(s.gains, gains[i])
		if mae != nil {
			s.mae = append(s.mae, mae[i])
		}
		if labels != nil {
			s.labels = append(s.labels, labels[i])
		}
		if stamps != nil {
			s.times = append(s.times, stamps[i])
		}
	}
	if s.adjusted {
		s.gains = AdjustGains(s.gains, s.mae, *adj)
	}
	return s, nil
}

// Calculate produces the TradingMetrics report for a table along with the
// simulated equity curves requested by opts.Sizing.
func Calculate(t *dataset.Table, opts Options) (Result, error) {
	if opts.Adjustment != nil {
		if err := opts.Adjustment.Validate(); err != nil {
			return Result{}, err
		}
	}
	if opts.Sizing.FractionalKellyPct == 0 {
		opts.Sizing.FractionalKellyPct = DefaultFractionalKellyPct
	}
	if err := opts.Sizing.Validate(); err != nil {
		return Result{}, err
	}

	s, err := prepare(t, opts.Columns, opts.Adjustment)
	if err != nil {
		return Result{}, err
	}

	var res Result
	m := &res.Metrics
	m.NumTrades = s.count()
	if m.NumTrades == 0 {
		return res, nil
	}

	wins := Classify(s.gains, s.labels, Classification{
		Adjusted:       s.adjusted,
		Derived:        opts.Derived,
		BreakevenIsWin: opts.BreakevenIsWin,
	})
	pct := toPct(s.gains)
	winners, losers := Partition(pct, wins)

	m.WinnerCount = len(winners)
	m.LoserCount = len(losers)
	m.WinRate = ptr(float64(m.WinnerCount) / float64(m.NumTrades) * 100)

	coreStats(m, winners, losers, s.gains, opts.Sizing.FractionalKellyPct)

	maxW, maxL := Streaks(wins)
	m.MaxConsecutiveWins = ptr(maxW)
	m.MaxConsecutiveLosses = ptr(maxL)
	if s.adjusted {
		m.StopHitPct = StopHitPct(s.mae, opts.Adjustment.StopLossPct)
	}

	sz := opts.Sizing
	if sz.FlatStake != nil {
		start := 0.0
		if sz.StartCapital != nil {
			start = *sz.StartCapital
		}
		res.FlatEquity = SimulateFlatStake(pct, *sz.FlatStake, start)
		m.FlatStake = summarize(res.FlatEquity, false)
	}
	if sz.StartCapital != nil && m.Kelly != nil && *m.Kelly > 0 {
		fraction := *m.FractionalKelly / 100
		res.KellyEquity = SimulateKelly(pct, fraction, *sz.StartCapital)
		m.Compounded = summarize(res.KellyEquity, true)
	}
	return res, nil
}

// coreStats fills the bucket statistics and the edge/Kelly family. Each
// field is nulled independently of the others.
func coreStats(m *TradingMetrics, winners, losers, gains []float64, fractionalKellyPct float64) {
	w := describe(winners)
	l := describe(losers)
	m.AvgWinner, m.MedianWinner, m.MinWinner, m.MaxWinner = w.avg, w.median, w.min, w.max
	m.AvgLoser, m.MedianLoser, m.MinLoser, m.MaxLoser = l.avg, l.median, l.min, l.max

	if w.avg == nil || l.avg == nil || *w.avg == 0 || *l.avg == 0 {
		return
	}
	avgW, avgL := *w.avg, *l.avg
	rr := math.Abs(avgW / avgL)
	wr := *m.WinRate / 100

	ev := wr*avgW + (1-wr)*avgL
	kelly := (wr - (1-wr)/rr) * 100

	m.RRRatio = ptr(rr)
	m.EV = ptr(ev)
	m.Kelly = ptr(kelly)
	m.FractionalKelly = ptr(kelly * fractionalKellyPct / 100)
	m.Edge = ptr(((rr+1)*wr - 1) * 100)

	if variance, ok := sampleVariance(gains); ok {
		k := kelly / 100
		g := k*(ev/100) - k*k*variance/2
		if finite(g) {
			m.ExpectedGrowth = ptr(g * 100)
		}
	}
}
