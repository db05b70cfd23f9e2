package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradestats/report"
	"github.com/rustyeddy/tradestats/stats"
)

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Break performance down by year or by month",
	Long: `Show per-period statistics. Drawdown in every period is measured
against the running peak of the whole history, not the period alone.

Examples:
  tradestats breakdown --csv trades.csv
  tradestats breakdown --csv trades.csv --year 2024`,
	Args: cobra.NoArgs,
	RunE: runBreakdown,
}

var (
	breakdownFlags analysisFlags
	breakdownYear  int
	breakdownJSON  bool
)

func init() {
	rootCmd.AddCommand(breakdownCmd)
	breakdownFlags.register(breakdownCmd)

	breakdownCmd.Flags().IntVar(&breakdownYear, "year", 0, "show months of this year instead of years")
	breakdownCmd.Flags().BoolVar(&breakdownJSON, "json", false, "print the breakdown as JSON")
}

func runBreakdown(cmd *cobra.Command, args []string) error {
	if err := breakdownFlags.apply(cmd, cfg); err != nil {
		return err
	}
	tbl, name, err := breakdownFlags.load(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	opts := cfg.BreakdownOptions()
	var (
		periods map[string]stats.PeriodMetrics
		order   []string
		title   string
	)
	if breakdownYear != 0 {
		periods, err = stats.Monthly(tbl, breakdownYear, opts)
		order = stats.MonthOrder[:]
		title = fmt.Sprintf("%s: %d by month", name, breakdownYear)
	} else {
		periods, err = stats.Yearly(tbl, opts)
		order = report.YearOrder(periods)
		title = fmt.Sprintf("%s: by year", name)
	}
	if err != nil {
		return fmt.Errorf("breakdown: %w", err)
	}
	log.Debug().Int("periods", len(periods)).Int("year", breakdownYear).Msg("breakdown computed")

	out := cmd.OutOrStdout()
	if breakdownJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(periods)
	}
	report.PrintBreakdown(out, title, periods, order)
	return nil
}
