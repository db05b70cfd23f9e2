package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradestats/config"
	"github.com/rustyeddy/tradestats/dataset"
	"github.com/rustyeddy/tradestats/journal"
	"github.com/rustyeddy/tradestats/stats"
)

// analysisFlags are shared by every command that runs the stats core.
// Each one overrides the matching config value only when given.
type analysisFlags struct {
	csvPath string
	dbPath  string

	gain, mae, winLoss, date, clock string

	stop, efficiency float64
	short            bool

	stake, capital, kellyPct float64
	derived, breakevenWin    bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.csvPath, "csv", "", "trade CSV to analyze (default: the journal DB)")
	fl.StringVar(&f.dbPath, "db", "", "SQLite journal DB (overrides journal.db_path)")

	fl.StringVar(&f.gain, "gain", "", "gain column (decimal, 0.05 = 5%)")
	fl.StringVar(&f.mae, "mae", "", "MAE column (percentage points)")
	fl.StringVar(&f.winLoss, "win-loss", "", "explicit win/loss column")
	fl.StringVar(&f.date, "date", "", "date column")
	fl.StringVar(&f.clock, "time", "", "time-of-day column")

	fl.Float64Var(&f.stop, "stop", 0, "stop loss %; enables the MAE adjustment")
	fl.Float64Var(&f.efficiency, "efficiency", 0, "slippage % deducted from every trade")
	fl.BoolVar(&f.short, "short", false, "trades are short")

	fl.Float64Var(&f.stake, "stake", 0, "flat stake per trade")
	fl.Float64Var(&f.capital, "capital", 0, "starting capital")
	fl.Float64Var(&f.kellyPct, "kelly-pct", 0, "share of full Kelly to compound with")
	fl.BoolVar(&f.derived, "derived", false, "ignore the win/loss column and use the gain sign")
	fl.BoolVar(&f.breakevenWin, "breakeven-win", false, "count zero-gain trades as winners")
}

// columns overrides each column name whose flag was given.
func (f *analysisFlags) columns(cmd *cobra.Command, cols *stats.Columns) {
	for name, v := range map[string]struct{ dst, val *string }{
		"gain":     {&cols.Gain, &f.gain},
		"mae":      {&cols.MAE, &f.mae},
		"win-loss": {&cols.WinLoss, &f.winLoss},
		"date":     {&cols.Date, &f.date},
		"time":     {&cols.Time, &f.clock},
	} {
		if cmd.Flags().Changed(name) {
			*v.dst = *v.val
		}
	}
}

func (f *analysisFlags) apply(cmd *cobra.Command, c *config.Config) error {
	fl := cmd.Flags()

	if f.csvPath == "" {
		// the journal's own layout
		c.Columns = journal.Columns
	}
	f.columns(cmd, &c.Columns)
	if fl.Changed("db") {
		c.Journal.DBPath = f.dbPath
	}

	if fl.Changed("stop") {
		c.Adjustment.Enabled = true
		c.Adjustment.StopLossPct = f.stop
	}
	if fl.Changed("efficiency") {
		c.Adjustment.EfficiencyPct = f.efficiency
	}
	if fl.Changed("short") {
		c.Adjustment.IsShort = f.short
	}
	if fl.Changed("stake") {
		v := f.stake
		c.Sizing.FlatStake = &v
	}
	if fl.Changed("capital") {
		v := f.capital
		c.Sizing.StartCapital = &v
	}
	if fl.Changed("kelly-pct") {
		c.Sizing.FractionalKellyPct = f.kellyPct
	}
	if fl.Changed("derived") {
		c.Classification.Derived = f.derived
	}
	if fl.Changed("breakeven-win") {
		c.Classification.BreakevenIsWin = f.breakevenWin
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// load reads the trade table from --csv, or from the journal DB, and
// returns it with a name for reports.
func (f *analysisFlags) load(ctx context.Context, c *config.Config) (*dataset.Table, string, error) {
	if f.csvPath != "" {
		fh, err := os.Open(f.csvPath)
		if err != nil {
			return nil, "", fmt.Errorf("open csv: %w", err)
		}
		defer fh.Close()

		t, err := journal.ReadTradesCSV(fh, c.Columns)
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", f.csvPath, err)
		}
		log.Debug().Str("csv", f.csvPath).Int("rows", t.Len()).Msg("trades loaded")
		return t, filepath.Base(f.csvPath), nil
	}

	j, err := journal.NewSQLite(c.Journal.DBPath)
	if err != nil {
		return nil, "", fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	t, err := j.Table(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("load journal: %w", err)
	}
	log.Debug().Str("db", c.Journal.DBPath).Int("rows", t.Len()).Msg("trades loaded")
	return t, filepath.Base(c.Journal.DBPath), nil
}
