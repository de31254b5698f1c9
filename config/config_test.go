package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero_capital", func(c *Config) { c.Account.InitialCapital = 0 }, "initial_capital"},
		{"negative_fee", func(c *Config) { c.Account.FeeRate = -0.001 }, "fee_rate"},
		{"fractional_leverage", func(c *Config) { c.Account.Leverage = 0.5 }, "leverage"},
		{"missing_symbol", func(c *Config) { c.Trading.Symbol = "" }, "symbol"},
		{"bad_interval", func(c *Config) { c.Trading.Interval = "7m" }, "interval"},
		{"zero_history", func(c *Config) { c.Trading.HistoryDays = 0 }, "history_days"},
		{"bad_journal_type", func(c *Config) { c.Journal.Type = "redis" }, "journal.type"},
		{"csv_missing_files", func(c *Config) { c.Journal.FillsFile = "" }, "fills_file"},
		{"sqlite_missing_path", func(c *Config) {
			c.Journal.Type = "sqlite"
			c.Journal.DBPath = ""
		}, "db_path"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	t.Parallel()

	raw := `
account:
  initial_capital: 250
  fee_rate: 0.001
  leverage: 3
trading:
  symbol: ETHUSDT
  interval: 4h
  history_days: 14
  report_cycle_hours: 12
journal:
  type: sqlite
  db_path: ./trader.db
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 250.0, cfg.Account.InitialCapital)
	assert.Equal(t, 3.0, cfg.Account.Leverage)
	assert.Equal(t, "ETHUSDT", cfg.Trading.Symbol)
	assert.Equal(t, 12, cfg.Trading.ReportCycleHours)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  initial_capital: -5\n"), 0o644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	orig := Default()
	require.NoError(t, orig.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestEnvResolution(t *testing.T) {
	cfg := Default()
	t.Setenv("BINANCE_API_KEY", "k123")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("BINANCE_SECRET_KEY", "")

	assert.Equal(t, "k123", cfg.APIKey())
	assert.Equal(t, "tok", cfg.BotToken())
	assert.Empty(t, cfg.SecretKey())
}
