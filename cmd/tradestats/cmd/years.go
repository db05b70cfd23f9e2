package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradestats/stats"
)

var yearsCmd = &cobra.Command{
	Use:   "years",
	Short: "List the years that contain dated trades",
	Args:  cobra.NoArgs,
	RunE:  runYears,
}

var yearsFlags analysisFlags

func init() {
	rootCmd.AddCommand(yearsCmd)
	yearsFlags.register(yearsCmd)
}

func runYears(cmd *cobra.Command, args []string) error {
	if err := yearsFlags.apply(cmd, cfg); err != nil {
		return err
	}
	tbl, _, err := yearsFlags.load(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	years, err := stats.AvailableYears(tbl, cfg.Columns)
	if err != nil {
		return fmt.Errorf("years: %w", err)
	}
	for _, y := range years {
		fmt.Fprintln(cmd.OutOrStdout(), y)
	}
	return nil
}
