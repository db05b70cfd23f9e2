package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rustyeddy/tradestats/journal"
	"github.com/rustyeddy/tradestats/stats"
)

const rule = "--------------------------------------------------"

var num = journal.Num

func pct(v *float64) string {
	if v == nil {
		return journal.Null
	}
	return num(v) + "%"
}

// PrintMetrics writes a plain-text summary of r.
func PrintMetrics(w io.Writer, r Report) {
	m := r.Result.Metrics

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Trade Statistics")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	if !r.Created.IsZero() {
		fmt.Fprintf(w, "Created:       %s\n", r.Created.Format(time.RFC3339))
	}
	if r.Dataset != "" {
		fmt.Fprintf(w, "Dataset:       %s\n", r.Dataset)
	}
	if r.Cached {
		fmt.Fprintln(w, "Source:        cache")
	}

	if a := r.Options.Adjustment; a != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Adjustment")
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Stop Loss:     %.2f%%\n", a.StopLossPct)
		fmt.Fprintf(w, "Efficiency:    %.2f%%\n", a.EfficiencyPct)
		fmt.Fprintf(w, "Stops Hit:     %s\n", pct(m.StopHitPct))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Outcomes")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Trades:        %d\n", m.NumTrades)
	fmt.Fprintf(w, "Wins:          %d\n", m.WinnerCount)
	fmt.Fprintf(w, "Losses:        %d\n", m.LoserCount)
	fmt.Fprintf(w, "Win Rate:      %s\n", pct(m.WinRate))
	fmt.Fprintf(w, "Win Streak:    %s\n", journal.Count(m.MaxConsecutiveWins))
	fmt.Fprintf(w, "Loss Streak:   %s\n", journal.Count(m.MaxConsecutiveLosses))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-9s %9s %9s %9s %9s\n", "", "Avg", "Median", "Min", "Max")
	fmt.Fprintf(w, "%-9s %9s %9s %9s %9s\n", "Winners", num(m.AvgWinner), num(m.MedianWinner), num(m.MinWinner), num(m.MaxWinner))
	fmt.Fprintf(w, "%-9s %9s %9s %9s %9s\n", "Losers", num(m.AvgLoser), num(m.MedianLoser), num(m.MinLoser), num(m.MaxLoser))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Edge")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "R:R:           %s\n", num(m.RRRatio))
	fmt.Fprintf(w, "EV:            %s\n", pct(m.EV))
	fmt.Fprintf(w, "Edge:          %s\n", pct(m.Edge))
	fmt.Fprintf(w, "Kelly:         %s\n", pct(m.Kelly))
	fmt.Fprintf(w, "Frac. Kelly:   %s\n", pct(m.FractionalKelly))
	fmt.Fprintf(w, "Exp. Growth:   %s\n", pct(m.ExpectedGrowth))

	printPnL(w, "Flat Stake", m.FlatStake)
	printPnL(w, "Kelly Compounded", m.Compounded)

	fmt.Fprintln(w)
}

func printPnL(w io.Writer, title string, s *stats.PnLSummary) {
	if s == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Net P/L:       %s\n", num(s.PnL))
	fmt.Fprintf(w, "Final Equity:  %s\n", num(s.FinalEquity))
	fmt.Fprintf(w, "Max Drawdown:  %s (%s)\n", num(s.MaxDrawdown), pct(s.MaxDrawdownPct))
	fmt.Fprintf(w, "Recovery:      %s\n", s.Recovery)
	if s.Blown {
		fmt.Fprintln(w, "Account:       BLOWN")
	}
}

// YearOrder returns the keys of a yearly breakdown in calendar order.
func YearOrder(periods map[string]stats.PeriodMetrics) []string {
	keys := make([]string, 0, len(periods))
	for k := range periods {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PrintBreakdown writes one row per period, in order. Keys missing from
// periods are skipped.
func PrintBreakdown(w io.Writer, title string, periods map[string]stats.PeriodMetrics, order []string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-6s %6s %9s %10s %9s %9s %9s %9s\n",
		"Period", "Trades", "Gain %", "Flat P/L", "Max DD", "Max DD %", "Win %", "EV %")

	for _, k := range order {
		p, ok := periods[k]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%-6s %6d %9s %10s %9s %9s %9s %9s\n",
			k, p.Count, num(p.TotalGainPct), num(p.TotalFlatStake), num(p.MaxDrawdown),
			num(p.MaxDrawdownPct), num(p.WinRate), num(p.EVPct))
	}
	fmt.Fprintln(w)
}
