package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradestats/cache"
	"github.com/rustyeddy/tradestats/config"
	"github.com/rustyeddy/tradestats/dataset"
	"github.com/rustyeddy/tradestats/journal"
	"github.com/rustyeddy/tradestats/report"
	"github.com/rustyeddy/tradestats/stats"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute trade statistics and equity simulations",
	Long: `Compute the full statistics report for a set of trades.

Trades come from a CSV file (--csv) or from the journal DB. When a date
column is present the yearly breakdown is included.

Examples:
  tradestats analyze --csv trades.csv --stake 1000 --capital 10000
  tradestats analyze --csv trades.csv --mae mae --stop 8 --efficiency 0.5
  tradestats analyze --org report.org --equity equity.csv
  tradestats analyze --csv trades.csv --year 2024`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

var (
	analyzeFlags  analysisFlags
	analyzeJSON   bool
	analyzeOrg    string
	analyzeEquity string
	analyzeNotes  []string
	analyzeYear   int
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeFlags.register(analyzeCmd)

	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the report as JSON")
	analyzeCmd.Flags().StringVar(&analyzeOrg, "org", "", "write an Org-mode report to this path")
	analyzeCmd.Flags().StringVar(&analyzeEquity, "equity", "", "write the equity curves as CSV to this path")
	analyzeCmd.Flags().StringArrayVar(&analyzeNotes, "note", nil, "observation to add to the Org report (repeatable)")
	analyzeCmd.Flags().IntVar(&analyzeYear, "year", 0, "only analyze trades dated in this year")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := analyzeFlags.apply(cmd, cfg); err != nil {
		return err
	}

	tbl, name, err := analyzeFlags.load(ctx, cfg)
	if err != nil {
		return err
	}
	if analyzeYear != 0 {
		if tbl, err = yearRows(tbl, cfg.Columns.Date, analyzeYear); err != nil {
			return err
		}
		name = fmt.Sprintf("%s (%d)", name, analyzeYear)
	}

	c, closeCache, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	req := report.Request{
		Table:   tbl,
		Dataset: name,
		Options: cfg.StatsOptions(),
	}
	if cfg.Columns.Date != "" && tbl.Has(cfg.Columns.Date) {
		bo := cfg.BreakdownOptions()
		req.Breakdown = &bo
	}

	rep, err := report.NewRunner(c, log, false).Run(ctx, req)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		if err := writeJSON(out, rep); err != nil {
			return err
		}
	} else {
		report.PrintMetrics(out, rep)
		if len(rep.Years) > 0 {
			report.PrintBreakdown(out, "Yearly Breakdown", rep.Years, report.YearOrder(rep.Years))
		}
	}

	if analyzeEquity != "" {
		if err := writeEquity(analyzeEquity, rep.Result); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Equity curves: %s\n", analyzeEquity)
	}
	if analyzeOrg != "" {
		run := rep.Org()
		run.EquityCSV = analyzeEquity
		run.Notes = analyzeNotes
		if err := run.WriteOrg(analyzeOrg); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Org report: %s\n", analyzeOrg)
	}
	return nil
}

// yearRows keeps the rows dated in year.
func yearRows(t *dataset.Table, dateCol string, year int) (*dataset.Table, error) {
	if dateCol == "" {
		return nil, fmt.Errorf("--year needs a date column")
	}
	dates, err := t.Time(dateCol)
	if err != nil {
		return nil, fmt.Errorf("filter year: %w", err)
	}
	var idx []int
	for i, d := range dates {
		if !d.IsZero() && d.Year() == year {
			idx = append(idx, i)
		}
	}
	return t.Select(idx), nil
}

// openCache builds the configured result cache. The returned func
// releases it and is never nil.
func openCache(c *config.Config) (cache.Cache, func(), error) {
	switch c.Cache.Type {
	case "memory":
		return cache.NewMemory(c.Cache.Size), func() {}, nil
	case "sqlite":
		j, err := journal.NewSQLite(c.Journal.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open cache db: %w", err)
		}
		return j, func() { _ = j.Close() }, nil
	}
	return nil, func() {}, nil
}

type jsonReport struct {
	RunID   string                         `json:"run_id"`
	Dataset string                         `json:"dataset"`
	Cached  bool                           `json:"cached"`
	Result  stats.Result                   `json:"result"`
	Years   map[string]stats.PeriodMetrics `json:"years,omitempty"`
}

func writeJSON(w io.Writer, rep report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	err := enc.Encode(jsonReport{
		RunID:   rep.RunID,
		Dataset: rep.Dataset,
		Cached:  rep.Cached,
		Result:  rep.Result,
		Years:   rep.Years,
	})
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeEquity(path string, res stats.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create equity csv: %w", err)
	}
	if err := journal.WriteEquityCSV(f, res.FlatEquity, res.KellyEquity); err != nil {
		f.Close()
		return fmt.Errorf("write equity csv: %w", err)
	}
	return f.Close()
}
