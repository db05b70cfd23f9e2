package journal

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/rustyeddy/tradestats/dataset"
	"github.com/rustyeddy/tradestats/stats"
)

// Null is how a statistic with no value is rendered.
const Null = "—"

// ReportRun is everything an analysis report shows.
type ReportRun struct {
	RunID   string
	Created time.Time
	Dataset string
	Cached  bool

	Options stats.Options
	Metrics stats.TradingMetrics
	Years   map[string]stats.PeriodMetrics

	EquityCSV string
	Notes     []string
}

// Period is one row of the yearly table, in display order.
type Period struct {
	Name string
	stats.PeriodMetrics
}

// Periods returns the yearly breakdown sorted by year.
func (r ReportRun) Periods() []Period {
	keys := make([]string, 0, len(r.Years))
	for k := range r.Years {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Period, len(keys))
	for i, k := range keys {
		out[i] = Period{Name: k, PeriodMetrics: r.Years[k]}
	}
	return out
}

// Num renders a nullable statistic with two decimals.
func Num(v *float64) string {
	if v == nil {
		return Null
	}
	return fmt.Sprintf("%.2f", *v)
}

// Count renders a nullable count.
func Count(v *int) string {
	if v == nil {
		return Null
	}
	return fmt.Sprintf("%d", *v)
}

var reportOrgFuncs = template.FuncMap{
	"num":   Num,
	"count": Count,
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return Null
		}
		return "[" + t.Format("2006-01-02 Mon 15:04") + "]"
	},
	"orNA": func(s string) string {
		if s == "" {
			return Null
		}
		return s
	},
}

var reportOrg = template.Must(template.New("report").Funcs(reportOrgFuncs).Parse(ReportOrgTemplate))

// FormatReportOrg renders a run as an Org-mode entry for a trading journal.
func FormatReportOrg(r ReportRun) (string, error) {
	buf := new(bytes.Buffer)
	if err := reportOrg.Execute(buf, r); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

// WriteOrg renders the run to path.
func (r ReportRun) WriteOrg(path string) error {
	s, err := FormatReportOrg(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

// FormatTradeOrg renders a TradeRecord as an Org-mode block suitable for pasting into a journal.
// Structured facts go in a PROPERTIES drawer; the Review section is left for notes.
func FormatTradeOrg(t TradeRecord) string {
	title := t.Ticker
	if title == "" {
		title = Null
	}
	date := Null
	if !t.Date.IsZero() {
		date = t.Date.UTC().Format("2006-01-02")
	}
	gain := Null
	if !math.IsNaN(t.Gain) {
		gain = fmt.Sprintf("%.2f%%", t.Gain*100)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("** Trade: %s %s (%s)\n", title, date, shortID(t.TradeID)))
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.TradeID))
	b.WriteString(fmt.Sprintf(":ID: %s\n", t.TradeID))
	b.WriteString(fmt.Sprintf(":TICKER: %s\n", t.Ticker))
	b.WriteString(fmt.Sprintf(":DATE: %s\n", date))
	if c := clock(t.Clock); c != "" {
		b.WriteString(fmt.Sprintf(":TIME: %s\n", c))
	}
	b.WriteString(fmt.Sprintf(":GAIN: %s\n", gain))
	if !math.IsNaN(t.MAE) {
		b.WriteString(fmt.Sprintf(":MAE: %.2f\n", t.MAE))
	}
	if !math.IsNaN(t.MFE) {
		b.WriteString(fmt.Sprintf(":MFE: %.2f\n", t.MFE))
	}
	if t.WinLoss != dataset.LabelUnknown {
		b.WriteString(fmt.Sprintf(":WIN_LOSS: %s\n", t.WinLoss))
	}
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Review\n")
	if t.Notes != "" {
		b.WriteString(fmt.Sprintf("- %s\n", t.Notes))
	} else {
		b.WriteString("- \n")
	}

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}

const ReportOrgTemplate = `* ANALYSIS: {{orNA .Dataset}}
:PROPERTIES:
:RUN_ID:      {{orNA .RunID}}
:CACHED:      {{.Cached}}
:TRADES:      {{.Metrics.NumTrades}}
:WINS:        {{.Metrics.WinnerCount}}
:LOSSES:      {{.Metrics.LoserCount}}
:WIN_RATE:    {{num .Metrics.WinRate}}
:EV:          {{num .Metrics.EV}}
:CREATED:     {{stamp .Created}}
:END:

** Parameters
| Parameter         | Value |
|-------------------+-------|
| Gain column       | {{.Options.Columns.Gain}} |
| Derived labels    | {{.Options.Derived}} |
| Breakeven is win  | {{.Options.BreakevenIsWin}} |
{{- with .Options.Adjustment}}
| Stop loss %       | {{printf "%.2f" .StopLossPct}} |
| Efficiency %      | {{printf "%.2f" .EfficiencyPct}} |
{{- end}}
| Flat stake        | {{num .Options.Sizing.FlatStake}} |
| Start capital     | {{num .Options.Sizing.StartCapital}} |
| Kelly fraction %  | {{printf "%.0f" .Options.Sizing.FractionalKellyPct}} |

** Performance Summary
- Win Rate:          *{{num .Metrics.WinRate}}%*
- Avg Winner:        *{{num .Metrics.AvgWinner}}%*
- Avg Loser:         *{{num .Metrics.AvgLoser}}%*
- R:R:               *{{num .Metrics.RRRatio}}*
- EV:                *{{num .Metrics.EV}}%*
- Edge:              *{{num .Metrics.Edge}}%*
- Kelly:             *{{num .Metrics.Kelly}}%*
- Fractional Kelly:  *{{num .Metrics.FractionalKelly}}%*
- Expected Growth:   *{{num .Metrics.ExpectedGrowth}}%*
- Max Win Streak:    *{{count .Metrics.MaxConsecutiveWins}}*
- Max Loss Streak:   *{{count .Metrics.MaxConsecutiveLosses}}*
{{- if .Metrics.StopHitPct}}
- Stops Hit:         *{{num .Metrics.StopHitPct}}%*
{{- end}}

** Trade Distribution
| Bucket  | Avg | Median | Min | Max |
|---------+-----+--------+-----+-----|
| Winners | {{num .Metrics.AvgWinner}} | {{num .Metrics.MedianWinner}} | {{num .Metrics.MinWinner}} | {{num .Metrics.MaxWinner}} |
| Losers  | {{num .Metrics.AvgLoser}} | {{num .Metrics.MedianLoser}} | {{num .Metrics.MinLoser}} | {{num .Metrics.MaxLoser}} |
{{- with .Metrics.FlatStake}}

** Flat Stake
- P/L:             *{{num .PnL}}*
- Final Equity:    *{{num .FinalEquity}}*
- Max Drawdown:    *{{num .MaxDrawdown}} ({{num .MaxDrawdownPct}}%)*
- Recovery:        *{{.Recovery}}*
{{- end}}
{{- with .Metrics.Compounded}}

** Kelly Compounded
- P/L:             *{{num .PnL}}*
- Final Equity:    *{{num .FinalEquity}}*
- Max Drawdown:    *{{num .MaxDrawdown}} ({{num .MaxDrawdownPct}}%)*
- Recovery:        *{{.Recovery}}*
- Blown:           *{{.Blown}}*
{{- end}}
{{- if .Years}}

** Yearly Breakdown
| Year | Trades | Gain % | Flat P/L | Max DD | Max DD % | Win Rate | EV % |
|------+--------+--------+----------+--------+----------+----------+------|
{{- range .Periods}}
| {{.Name}} | {{.Count}} | {{num .TotalGainPct}} | {{num .TotalFlatStake}} | {{num .MaxDrawdown}} | {{num .MaxDrawdownPct}} | {{num .WinRate}} | {{num .EVPct}} |
{{- end}}
{{- end}}

** Equity Curve
{{- if .EquityCSV}}
[[file:{{.EquityCSV}}]]
{{- else}}
# (optional) export the equity curve with --equity
{{- end}}
{{- if .Notes}}

** Observations
{{- range .Notes}}
- {{.}}
{{- end}}
{{- end}}
`
