// Package config loads and validates the trader configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"margintrader/market"
)

// Config is the complete trader configuration.
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Trading  TradingConfig  `json:"trading" yaml:"trading"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
}

// AccountConfig holds the ledger parameters.
type AccountConfig struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	FeeRate        float64 `json:"fee_rate" yaml:"fee_rate"`
	Leverage       float64 `json:"leverage" yaml:"leverage"`
}

// TradingConfig holds the instrument and loop parameters.
type TradingConfig struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	// Interval is the kline interval driving the strategy ("1h").
	Interval market.Interval `json:"interval" yaml:"interval"`
	// HistoryDays is how many days of klines to warm indicators with.
	HistoryDays int `json:"history_days" yaml:"history_days"`
	// ReportCycleHours is how often Analyze runs and the capital cycle
	// resets. 0 disables periodic reports.
	ReportCycleHours int `json:"report_cycle_hours" yaml:"report_cycle_hours"`
	// APIKeyEnv / SecretKeyEnv name the environment variables holding the
	// exchange credentials. Keys never live in the config file itself.
	APIKeyEnv    string `json:"api_key_env" yaml:"api_key_env"`
	SecretKeyEnv string `json:"secret_key_env" yaml:"secret_key_env"`
}

// StrategyConfig holds the MACD crossover parameters.
type StrategyConfig struct {
	FastPeriod   int `json:"fast_period" yaml:"fast_period"`
	SlowPeriod   int `json:"slow_period" yaml:"slow_period"`
	SignalPeriod int `json:"signal_period" yaml:"signal_period"`
}

// JournalConfig selects the journaling backend.
type JournalConfig struct {
	Type        string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	FillsFile   string `json:"fills_file,omitempty" yaml:"fills_file,omitempty"`
	ProfitsFile string `json:"profits_file,omitempty" yaml:"profits_file,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// TelegramConfig holds the notification channel settings. An empty chat ID
// disables Telegram and falls back to log notifications.
type TelegramConfig struct {
	BotTokenEnv string `json:"bot_token_env,omitempty" yaml:"bot_token_env,omitempty"`
	ChatID      string `json:"chat_id,omitempty" yaml:"chat_id,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML (or JSON for .json paths).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Account.InitialCapital <= 0 {
		return fmt.Errorf("account.initial_capital must be positive")
	}
	if c.Account.FeeRate < 0 {
		return fmt.Errorf("account.fee_rate must not be negative")
	}
	if c.Account.Leverage < 1 {
		return fmt.Errorf("account.leverage must be at least 1")
	}
	if c.Trading.Symbol == "" {
		return fmt.Errorf("trading.symbol is required")
	}
	if c.Trading.Interval.Duration() == 0 {
		return fmt.Errorf("unknown trading.interval: %s", c.Trading.Interval)
	}
	if c.Trading.HistoryDays <= 0 {
		return fmt.Errorf("trading.history_days must be positive")
	}
	if c.Trading.ReportCycleHours < 0 {
		return fmt.Errorf("trading.report_cycle_hours must not be negative")
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.FillsFile == "" || c.Journal.ProfitsFile == "" {
			return fmt.Errorf("journal fills_file and profits_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}

	return nil
}

// APIKey resolves the exchange API key from the environment.
func (c *Config) APIKey() string {
	return os.Getenv(c.Trading.APIKeyEnv)
}

// SecretKey resolves the exchange secret key from the environment.
func (c *Config) SecretKey() string {
	return os.Getenv(c.Trading.SecretKeyEnv)
}

// BotToken resolves the Telegram bot token from the environment.
func (c *Config) BotToken() string {
	return os.Getenv(c.Telegram.BotTokenEnv)
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			InitialCapital: 100,
			FeeRate:        0.0005,
			Leverage:       2,
		},
		Trading: TradingConfig{
			Symbol:           "BTCUSDT",
			Interval:         market.H1,
			HistoryDays:      30,
			ReportCycleHours: 24,
			APIKeyEnv:        "BINANCE_API_KEY",
			SecretKeyEnv:     "BINANCE_SECRET_KEY",
		},
		Strategy: StrategyConfig{
			FastPeriod:   12,
			SlowPeriod:   26,
			SignalPeriod: 9,
		},
		Journal: JournalConfig{
			Type:        "csv",
			FillsFile:   "./fills.csv",
			ProfitsFile: "./profits.csv",
		},
		Telegram: TelegramConfig{
			BotTokenEnv: "TELEGRAM_BOT_TOKEN",
		},
	}
}
