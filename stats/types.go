package stats

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidParams is returned for out-of-range adjustment or sizing input.
var ErrInvalidParams = errors.New("invalid parameters")

// DefaultFractionalKellyPct is the share of full Kelly used for compounding.
const DefaultFractionalKellyPct = 25.0

// AdjustmentParams describes the stop-loss and execution slippage applied
// to every raw outcome. Both values are percentage points (8.0 = 8%).
type AdjustmentParams struct {
	StopLossPct   float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	EfficiencyPct float64 `json:"efficiency_pct" yaml:"efficiency_pct"`
	// IsShort records the trade direction the MAE column was measured for.
	// MAE is already an adverse magnitude, so the arithmetic is the same.
	IsShort bool `json:"is_short" yaml:"is_short"`
}

// Validate rejects negative stops or slippage.
func (p AdjustmentParams) Validate() error {
	if p.StopLossPct < 0 {
		return fmt.Errorf("%w: stop_loss_pct must be >= 0", ErrInvalidParams)
	}
	if p.EfficiencyPct < 0 {
		return fmt.Errorf("%w: efficiency_pct must be >= 0", ErrInvalidParams)
	}
	return nil
}

// SizingParams selects the position-sizing regimes to simulate. A regime
// only runs when its capital parameter is set.
type SizingParams struct {
	FlatStake          *float64 `json:"flat_stake,omitempty" yaml:"flat_stake,omitempty"`
	StartCapital       *float64 `json:"start_capital,omitempty" yaml:"start_capital,omitempty"`
	FractionalKellyPct float64  `json:"fractional_kelly_pct" yaml:"fractional_kelly_pct"`
}

// Validate checks stake and capital are positive and the Kelly share is a
// percentage in (0, 100].
func (p SizingParams) Validate() error {
	if p.FlatStake != nil && *p.FlatStake <= 0 {
		return fmt.Errorf("%w: flat_stake must be > 0", ErrInvalidParams)
	}
	if p.StartCapital != nil && *p.StartCapital <= 0 {
		return fmt.Errorf("%w: start_capital must be > 0", ErrInvalidParams)
	}
	if p.FractionalKellyPct <= 0 || p.FractionalKellyPct > 100 {
		return fmt.Errorf("%w: fractional_kelly_pct must be in (0, 100]", ErrInvalidParams)
	}
	return nil
}

// EquityPoint is one step of a simulated account. TradeIndex 0 is the
// capital before any trade.
type EquityPoint struct {
	TradeIndex   int     `json:"trade_index"`
	Equity       float64 `json:"equity"`
	PositionSize float64 `json:"position_size"`
}

// RecoveryState discriminates the outcome of a drawdown.
type RecoveryState int

const (
	Recovered RecoveryState = iota
	NotRecovered
	Blown
)

var recoveryNames = map[RecoveryState]string{
	Recovered:    "recovered",
	NotRecovered: "not_recovered",
	Blown:        "blown",
}

// Recovery is the duration, in trades, from the maximum-drawdown point
// back to the prior peak, or a terminal state when that never happens.
type Recovery struct {
	State  RecoveryState
	Trades int
}

// RecoveredIn returns a Recovered result.
func RecoveredIn(trades int) Recovery { return Recovery{State: Recovered, Trades: trades} }

func (r Recovery) String() string {
	switch r.State {
	case NotRecovered:
		return "Not recovered"
	case Blown:
		return "Blown"
	}
	if r.Trades == 1 {
		return "1 trade"
	}
	return fmt.Sprintf("%d trades", r.Trades)
}

type recoveryJSON struct {
	State  string `json:"state"`
	Trades *int   `json:"trades,omitempty"`
}

func (r Recovery) MarshalJSON() ([]byte, error) {
	out := recoveryJSON{State: recoveryNames[r.State]}
	if r.State == Recovered {
		n := r.Trades
		out.Trades = &n
	}
	return json.Marshal(out)
}

func (r *Recovery) UnmarshalJSON(b []byte) error {
	var in recoveryJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	for state, name := range recoveryNames {
		if name == in.State {
			r.State = state
			r.Trades = 0
			if in.Trades != nil {
				r.Trades = *in.Trades
			}
			return nil
		}
	}
	return fmt.Errorf("unknown recovery state %q", in.State)
}

// PnLSummary is the result of one sizing regime.
type PnLSummary struct {
	PnL            *float64 `json:"pnl"`
	FinalEquity    *float64 `json:"final_equity"`
	MaxDrawdown    *float64 `json:"max_drawdown"`
	MaxDrawdownPct *float64 `json:"max_drawdown_pct"`
	Recovery       Recovery `json:"recovery"`
	Blown          bool     `json:"blown"`
}

// TradingMetrics is the full statistics report for one dataset view.
// Nil pointers are nulls: the statistic is not defined for the data.
// Winner, loser, ev, kelly and edge values are percentage points.
type TradingMetrics struct {
	NumTrades   int      `json:"num_trades"`
	WinnerCount int      `json:"winner_count"`
	LoserCount  int      `json:"loser_count"`
	WinRate     *float64 `json:"win_rate"`

	AvgWinner    *float64 `json:"avg_winner"`
	MedianWinner *float64 `json:"median_winner"`
	MinWinner    *float64 `json:"min_winner"`
	MaxWinner    *float64 `json:"max_winner"`

	AvgLoser    *float64 `json:"avg_loser"`
	MedianLoser *float64 `json:"median_loser"`
	MinLoser    *float64 `json:"min_loser"`
	MaxLoser    *float64 `json:"max_loser"`

	RRRatio         *float64 `json:"rr_ratio"`
	EV              *float64 `json:"ev"`
	Kelly           *float64 `json:"kelly"`
	FractionalKelly *float64 `json:"fractional_kelly"`
	Edge            *float64 `json:"edge"`
	ExpectedGrowth  *float64 `json:"expected_growth"`

	MaxConsecutiveWins   *int `json:"max_consecutive_wins"`
	MaxConsecutiveLosses *int `json:"max_consecutive_losses"`
	// StopHitPct is the share of trades whose MAE exceeded the stop.
	StopHitPct *float64 `json:"stop_hit_pct"`

	FlatStake  *PnLSummary `json:"flat_stake"`
	Compounded *PnLSummary `json:"kelly_compounded"`
}

// PeriodMetrics is the slice of the history falling in one calendar period.
type PeriodMetrics struct {
	Period         string   `json:"period"`
	Count          int      `json:"count"`
	TotalGainPct   *float64 `json:"total_gain_pct"`
	TotalFlatStake *float64 `json:"total_flat_stake"`
	MaxDrawdown    *float64 `json:"max_dd"`
	MaxDrawdownPct *float64 `json:"max_dd_pct"`
	WinRate        *float64 `json:"win_rate"`
	EVPct          *float64 `json:"ev_pct"`
	AvgWinnerPct   *float64 `json:"avg_winner_pct"`
	AvgLoserPct    *float64 `json:"avg_loser_pct"`
}

func ptr[T any](v T) *T { return &v }
