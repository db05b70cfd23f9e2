package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rustyeddy/tradestats/stats"
	"gopkg.in/yaml.v3"
)

// Config represents a complete analysis configuration
type Config struct {
	Columns        stats.Columns        `json:"columns" yaml:"columns"`
	Classification ClassificationConfig `json:"classification" yaml:"classification"`
	Adjustment     AdjustmentConfig     `json:"adjustment" yaml:"adjustment"`
	Sizing         SizingConfig         `json:"sizing" yaml:"sizing"`
	Journal        JournalConfig        `json:"journal" yaml:"journal"`
	Cache          CacheConfig          `json:"cache" yaml:"cache"`
	Log            LogConfig            `json:"log" yaml:"log"`
}

// ClassificationConfig decides how winners are told from losers when no
// adjustment is active.
type ClassificationConfig struct {
	Derived        bool `json:"derived" yaml:"derived"`
	BreakevenIsWin bool `json:"breakeven_is_win" yaml:"breakeven_is_win"`
}

// AdjustmentConfig contains the stop-loss and slippage model
type AdjustmentConfig struct {
	Enabled       bool    `json:"enabled" yaml:"enabled"`
	StopLossPct   float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	EfficiencyPct float64 `json:"efficiency_pct" yaml:"efficiency_pct"`
	IsShort       bool    `json:"is_short" yaml:"is_short"`
}

// SizingConfig contains the equity simulation parameters
type SizingConfig struct {
	FlatStake          *float64 `json:"flat_stake,omitempty" yaml:"flat_stake,omitempty"`
	StartCapital       *float64 `json:"start_capital,omitempty" yaml:"start_capital,omitempty"`
	FractionalKellyPct float64  `json:"fractional_kelly_pct" yaml:"fractional_kelly_pct"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	ReportFile string `json:"report_file,omitempty" yaml:"report_file,omitempty"`
}

// CacheConfig selects where analysis results are memoised
type CacheConfig struct {
	Type string `json:"type" yaml:"type"` // "none", "memory" or "sqlite"
	Size int    `json:"size,omitempty" yaml:"size,omitempty"`
}

// LogConfig contains logger parameters
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "json" or "console"
}

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel     = "TRADESTATS_LOG_LEVEL"
	EnvLogFormat    = "TRADESTATS_LOG_FORMAT"
	EnvJournalDB    = "TRADESTATS_JOURNAL_DB"
	EnvCacheType    = "TRADESTATS_CACHE"
	EnvFlatStake    = "TRADESTATS_FLAT_STAKE"
	EnvStartCapital = "TRADESTATS_START_CAPITAL"
	EnvKellyPct     = "TRADESTATS_KELLY_PCT"
)

// LoadFromFile loads configuration from a file (YAML first, JSON fallback)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ApplyEnv loads the given .env files, skipping ones that do not exist,
// then lets TRADESTATS_* variables override the file values. Variables
// already set in the process environment win over .env entries.
func (c *Config) ApplyEnv(envFiles ...string) error {
	for _, f := range envFiles {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvJournalDB); v != "" {
		c.Journal.DBPath = v
	}
	if v := os.Getenv(EnvCacheType); v != "" {
		c.Cache.Type = v
	}

	var err error
	if c.Sizing.FlatStake, err = envFloatPtr(EnvFlatStake, c.Sizing.FlatStake); err != nil {
		return err
	}
	if c.Sizing.StartCapital, err = envFloatPtr(EnvStartCapital, c.Sizing.StartCapital); err != nil {
		return err
	}
	if v := os.Getenv(EnvKellyPct); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvKellyPct, err)
		}
		c.Sizing.FractionalKellyPct = f
	}
	return nil
}

func envFloatPtr(key string, cur *float64) (*float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return cur, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}
	return &f, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Columns.Gain == "" {
		return fmt.Errorf("columns.gain is required")
	}
	if c.Adjustment.Enabled {
		if c.Columns.MAE == "" {
			return fmt.Errorf("adjustment.enabled requires columns.mae")
		}
		if err := c.AdjustmentParams().Validate(); err != nil {
			return fmt.Errorf("adjustment: %w", err)
		}
	}
	if err := c.SizingParams().Validate(); err != nil {
		return fmt.Errorf("sizing: %w", err)
	}
	switch c.Cache.Type {
	case "", "none", "memory":
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite cache")
		}
	default:
		return fmt.Errorf("cache.type must be 'none', 'memory' or 'sqlite'")
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}
	switch c.Log.Format {
	case "", "json", "console", "pretty":
	default:
		return fmt.Errorf("log.format must be 'json' or 'console'")
	}
	return nil
}

// AdjustmentParams returns the stop-loss model, or nil when disabled.
func (c *Config) AdjustmentParams() *stats.AdjustmentParams {
	if !c.Adjustment.Enabled {
		return nil
	}
	return &stats.AdjustmentParams{
		StopLossPct:   c.Adjustment.StopLossPct,
		EfficiencyPct: c.Adjustment.EfficiencyPct,
		IsShort:       c.Adjustment.IsShort,
	}
}

func (c *Config) SizingParams() stats.SizingParams {
	p := stats.SizingParams{
		FlatStake:          c.Sizing.FlatStake,
		StartCapital:       c.Sizing.StartCapital,
		FractionalKellyPct: c.Sizing.FractionalKellyPct,
	}
	if p.FractionalKellyPct == 0 {
		p.FractionalKellyPct = stats.DefaultFractionalKellyPct
	}
	return p
}

func (c *Config) StatsOptions() stats.Options {
	return stats.Options{
		Columns:        c.Columns,
		Derived:        c.Classification.Derived,
		BreakevenIsWin: c.Classification.BreakevenIsWin,
		Adjustment:     c.AdjustmentParams(),
		Sizing:         c.SizingParams(),
	}
}

// BreakdownOptions reuses the flat-stake sizing. Unset values fall back
// to the breakdown defaults.
func (c *Config) BreakdownOptions() stats.BreakdownOptions {
	o := stats.BreakdownOptions{
		Columns:        c.Columns,
		Derived:        c.Classification.Derived,
		BreakevenIsWin: c.Classification.BreakevenIsWin,
		Adjustment:     c.AdjustmentParams(),
	}
	if c.Sizing.FlatStake != nil {
		o.FlatStake = *c.Sizing.FlatStake
	}
	if c.Sizing.StartCapital != nil {
		o.StartCapital = *c.Sizing.StartCapital
	}
	return o
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	stake := stats.DefaultBreakdownStake
	capital := stats.DefaultBreakdownCapital
	return &Config{
		Columns: stats.Columns{
			Gain: "gain",
			Date: "date",
		},
		Sizing: SizingConfig{
			FlatStake:          &stake,
			StartCapital:       &capital,
			FractionalKellyPct: stats.DefaultFractionalKellyPct,
		},
		Journal: JournalConfig{
			DBPath:     "./tradestats.db",
			EquityFile: "./equity.csv",
			ReportFile: "./report.org",
		},
		Cache: CacheConfig{Type: "memory", Size: 64},
		Log:   LogConfig{Level: "info", Format: "console"},
	}
}
