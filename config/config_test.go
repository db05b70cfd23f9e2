package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rustyeddy/tradestats/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "gain", cfg.Columns.Gain)
	assert.Equal(t, 1000.0, *cfg.Sizing.FlatStake)
	assert.Equal(t, 10000.0, *cfg.Sizing.StartCapital)
	assert.Equal(t, 25.0, cfg.Sizing.FractionalKellyPct)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	neg := -5.0

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{
			name:   "missing gain column",
			mutate: func(c *Config) { c.Columns.Gain = "" },
			errMsg: "columns.gain is required",
		},
		{
			name: "adjustment without mae",
			mutate: func(c *Config) {
				c.Adjustment.Enabled = true
				c.Columns.MAE = ""
			},
			errMsg: "adjustment.enabled requires columns.mae",
		},
		{
			name: "negative stop",
			mutate: func(c *Config) {
				c.Columns.MAE = "mae"
				c.Adjustment = AdjustmentConfig{Enabled: true, StopLossPct: -1}
			},
			errMsg: "stop_loss_pct",
		},
		{
			name:   "negative stake",
			mutate: func(c *Config) { c.Sizing.FlatStake = &neg },
			errMsg: "flat_stake",
		},
		{
			name:   "kelly pct over 100",
			mutate: func(c *Config) { c.Sizing.FractionalKellyPct = 150 },
			errMsg: "fractional_kelly_pct",
		},
		{
			name: "sqlite cache without db",
			mutate: func(c *Config) {
				c.Cache.Type = "sqlite"
				c.Journal.DBPath = ""
			},
			errMsg: "journal.db_path required",
		},
		{
			name:   "unknown cache",
			mutate: func(c *Config) { c.Cache.Type = "redis" },
			errMsg: "cache.type",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Log.Level = "loud" },
			errMsg: "log.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Columns.MAE = "mae"
			cfg.Adjustment = AdjustmentConfig{Enabled: true, StopLossPct: 8, EfficiencyPct: 0.5}
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))
			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("columns:\n  gain: ret\nlog:\n  level: debug\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ret", cfg.Columns.Gain)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.Cache.Type)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not valid"), 0644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TRADESTATS_JOURNAL_DB=/tmp/from-dotenv.db\nTRADESTATS_LOG_LEVEL=error\n"), 0644))

	// process environment wins over the .env file
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvStartCapital, "2500")
	t.Setenv(EnvKellyPct, "50")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envFile, filepath.Join(dir, "absent.env")))
	t.Cleanup(func() { os.Unsetenv(EnvJournalDB) })

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.Journal.DBPath)
	assert.Equal(t, 2500.0, *cfg.Sizing.StartCapital)
	assert.Equal(t, 50.0, cfg.Sizing.FractionalKellyPct)
}

func TestApplyEnvRejectsBadNumber(t *testing.T) {
	t.Setenv(EnvFlatStake, "lots")
	err := Default().ApplyEnv()
	assert.ErrorContains(t, err, EnvFlatStake)
}

func TestConversions(t *testing.T) {
	cfg := Default()
	assert.Nil(t, cfg.AdjustmentParams())

	cfg.Columns.MAE = "mae"
	cfg.Adjustment = AdjustmentConfig{Enabled: true, StopLossPct: 8, EfficiencyPct: 1, IsShort: true}
	cfg.Classification.BreakevenIsWin = true
	cfg.Sizing.FractionalKellyPct = 0

	opts := cfg.StatsOptions()
	require.NotNil(t, opts.Adjustment)
	assert.Equal(t, stats.AdjustmentParams{StopLossPct: 8, EfficiencyPct: 1, IsShort: true}, *opts.Adjustment)
	assert.True(t, opts.BreakevenIsWin)
	assert.Equal(t, stats.DefaultFractionalKellyPct, opts.Sizing.FractionalKellyPct)

	bo := cfg.BreakdownOptions()
	assert.Equal(t, 1000.0, bo.FlatStake)
	assert.Equal(t, 10000.0, bo.StartCapital)

	cfg.Sizing.FlatStake = nil
	assert.Zero(t, cfg.BreakdownOptions().FlatStake)
}
