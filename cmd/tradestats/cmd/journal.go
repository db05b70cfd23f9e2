package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradestats/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Manage the SQLite trade journal",
	Long: `Import, query and export trades in the SQLite journal.

Subcommands:
  import  - Load trades from a CSV export
  list    - List trades, optionally within a date range
  trade   - Show one trade by ID
  export  - Write every trade to a CSV file
  clear-cache - Drop cached analysis results

Examples:
  tradestats journal import trades.csv --gain Return --date Date
  tradestats journal list --from 2024-01-01 --to 2024-07-01
  tradestats journal trade 01HZX...`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd, args); err != nil {
			return err
		}
		if journalDBPath != "" {
			cfg.Journal.DBPath = journalDBPath
		}
		return nil
	},
}

var journalImportCmd = &cobra.Command{
	Use:   "import <trades.csv>",
	Short: "Import trades from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalImport,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journaled trades",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalExportCmd = &cobra.Command{
	Use:   "export <trades.csv>",
	Short: "Export every trade to CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalExport,
}

var journalClearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Drop cached analysis results",
	Args:  cobra.NoArgs,
	RunE:  runJournalClearCache,
}

var (
	journalDBPath string
	importFlags   analysisFlags
	listFrom      string
	listTo        string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalImportCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalExportCmd)
	journalCmd.AddCommand(journalClearCacheCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "journal-db", "d", "", "path to SQLite journal DB (overrides journal.db_path)")

	fl := journalImportCmd.Flags()
	fl.StringVar(&importFlags.gain, "gain", "", "gain column")
	fl.StringVar(&importFlags.mae, "mae", "", "MAE column")
	fl.StringVar(&importFlags.winLoss, "win-loss", "", "win/loss column")
	fl.StringVar(&importFlags.date, "date", "", "date column")
	fl.StringVar(&importFlags.clock, "time", "", "time-of-day column")

	journalListCmd.Flags().StringVar(&listFrom, "from", "", "first day, YYYY-MM-DD (inclusive)")
	journalListCmd.Flags().StringVar(&listTo, "to", "", "last day, YYYY-MM-DD (exclusive)")
}

func openJournal() (*journal.SQLite, error) {
	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cols := cfg.Columns
	importFlags.columns(cmd, &cols)

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	tbl, err := journal.ReadTradesCSV(f, cols)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	recs, err := journal.Records(tbl, cols)
	if err != nil {
		return fmt.Errorf("convert trades: %w", err)
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	ids, err := j.RecordTrades(ctx, recs)
	if err != nil {
		return fmt.Errorf("import trades: %w", err)
	}
	log.Info().Int("trades", len(ids)).Str("db", cfg.Journal.DBPath).Msg("trades imported")
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d trades into %s\n", len(ids), cfg.Journal.DBPath)
	return nil
}

func runJournalList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	var recs []journal.TradeRecord
	if listFrom == "" && listTo == "" {
		recs, err = j.ListTrades(ctx)
	} else {
		var start, end time.Time
		start, end, err = dateRange(listFrom, listTo)
		if err != nil {
			return fmt.Errorf("date: %w", err)
		}
		recs, err = j.ListTradesBetween(ctx, start, end)
	}
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}

func runJournalExport(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTrades(cmd.Context())
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	out, err := journal.NewCSV(args[0])
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	for _, r := range recs {
		if err := out.RecordTrade(r); err != nil {
			out.Close()
			return fmt.Errorf("write trade %s: %w", r.TradeID, err)
		}
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d trades to %s\n", len(recs), args[0])
	return nil
}

func runJournalClearCache(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	if err := j.ClearCache(cmd.Context()); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Cache cleared")
	return nil
}

// dateRange parses optional YYYY-MM-DD bounds into [start, end) in UTC.
// A missing start is the zero time and a missing end is far in the future.
func dateRange(from, to string) (time.Time, time.Time, error) {
	start := time.Time{}
	end := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	if from != "" {
		t, err := time.ParseInLocation("2006-01-02", from, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	if to != "" {
		t, err := time.ParseInLocation("2006-01-02", to, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
	}
	return start, end, nil
}
