package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradestats/config"
	"github.com/rustyeddy/tradestats/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tradestats",
	Short: "Trade performance statistics for a trading journal",
	Long: `Tradestats turns a list of closed trades into a performance report.

It provides tools for:
  - Win rate, expectancy, R:R and Kelly sizing statistics
  - Stop-loss and slippage adjusted outcomes from MAE
  - Flat stake and fractional Kelly equity simulations
  - Yearly and monthly breakdowns on one continuous equity curve
  - A SQLite trade journal with Org-mode reports`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	cfgFile   string
	envFile   string
	logLevel  string
	logFormat string

	cfg *config.Config
	log = zerolog.Nop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with TRADESTATS_* overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "json or console")
}

// setup loads the config file, applies the environment and flag
// overrides, and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		c, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
	} else {
		cfg = config.Default()
	}

	if err := cfg.ApplyEnv(envFile); err != nil {
		return fmt.Errorf("apply env: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	log = logger.New(cfg.Log, cmd.ErrOrStderr())
	log.Debug().Str("command", cmd.CommandPath()).Str("config", cfgFile).Msg("configured")
	return nil
}
