package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full agent configuration.
type Config struct {
	Trader  TraderConfig  `yaml:"trader"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// TraderConfig controls the decision-and-risk core.
type TraderConfig struct {
	TickIntervalSeconds int     `yaml:"tick_interval_seconds"`
	InitialCapital      float64 `yaml:"initial_capital"`

	// Signal thresholds
	EnterThreshold    float64 `yaml:"enter_threshold"`     // min confidence to enter
	ExitThreshold     float64 `yaml:"exit_threshold"`      // held positions exit at or below
	StopLossPct       float64 `yaml:"stop_loss_pct"`       // drawdown fraction forcing exit
	LiquidityFloorUSD float64 `yaml:"liquidity_floor_usd"` // below this, no entries
	HistoryWindow     int     `yaml:"history_window"`      // samples kept per token

	// Risk limits
	PerTokenCap         float64 `yaml:"per_token_cap"`          // fraction of capital per token
	AggregateCap        float64 `yaml:"aggregate_cap"`          // fraction of capital in positions
	MinOrderNotionalUSD float64 `yaml:"min_order_notional_usd"` // dust floor
	MaxSlippagePct      float64 `yaml:"max_slippage_pct"`       // slippage bound per intent

	// Execution
	MaxRetryAttempts        int     `yaml:"max_retry_attempts"`
	BackoffBaseMillis       int     `yaml:"backoff_base_millis"`
	ExecutionTimeoutSeconds int     `yaml:"execution_timeout_seconds"`
	PaperSlippagePct        float64 `yaml:"paper_slippage_pct"` // slippage simulated by the paper executor

	MaxPairs int `yaml:"max_pairs"` // candidate pairs considered per tick
}

// APIConfig holds the market data base URL.
type APIConfig struct {
	DexScreenerBase string `yaml:"dexscreener_base"`
}

// StorageConfig controls where trade history is persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls log format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config file and the .env file if present. Env vars
// override YAML for the keys that map to them.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// TickInterval returns the loop pacing as a time.Duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Trader.TickIntervalSeconds) * time.Second
}

// BackoffBase returns the first retry delay as a time.Duration.
func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.Trader.BackoffBaseMillis) * time.Millisecond
}

// ExecutionTimeout returns the per-attempt submit deadline.
func (c *Config) ExecutionTimeout() time.Duration {
	return time.Duration(c.Trader.ExecutionTimeoutSeconds) * time.Second
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("TRADER_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

func setDefaults(cfg *Config) {
	t := &cfg.Trader
	if t.TickIntervalSeconds <= 0 {
		t.TickIntervalSeconds = 60
	}
	if t.InitialCapital <= 0 {
		t.InitialCapital = 1000
	}
	if t.EnterThreshold <= 0 {
		t.EnterThreshold = 0.7
	}
	if t.ExitThreshold <= 0 {
		t.ExitThreshold = 0.3
	}
	if t.StopLossPct <= 0 {
		t.StopLossPct = 0.2
	}
	if t.LiquidityFloorUSD <= 0 {
		t.LiquidityFloorUSD = 5_000
	}
	if t.HistoryWindow <= 0 {
		t.HistoryWindow = 20
	}
	if t.PerTokenCap <= 0 {
		t.PerTokenCap = 0.10
	}
	if t.AggregateCap <= 0 {
		t.AggregateCap = 0.50
	}
	if t.MinOrderNotionalUSD <= 0 {
		t.MinOrderNotionalUSD = 5
	}
	if t.MaxSlippagePct <= 0 {
		t.MaxSlippagePct = 0.02
	}
	if t.MaxRetryAttempts <= 0 {
		t.MaxRetryAttempts = 3
	}
	if t.BackoffBaseMillis <= 0 {
		t.BackoffBaseMillis = 500
	}
	if t.ExecutionTimeoutSeconds <= 0 {
		t.ExecutionTimeoutSeconds = 10
	}
	if t.MaxPairs <= 0 {
		t.MaxPairs = 50
	}
	if cfg.API.DexScreenerBase == "" {
		cfg.API.DexScreenerBase = "https://api.dexscreener.com/latest/dex"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "memetrader.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	t := c.Trader
	if t.PerTokenCap > 1 || t.AggregateCap > 1 {
		return fmt.Errorf("exposure caps must be fractions of capital (got per_token=%.2f aggregate=%.2f)",
			t.PerTokenCap, t.AggregateCap)
	}
	if t.PerTokenCap > t.AggregateCap {
		return fmt.Errorf("per_token_cap %.2f exceeds aggregate_cap %.2f", t.PerTokenCap, t.AggregateCap)
	}
	if t.EnterThreshold <= t.ExitThreshold {
		return fmt.Errorf("enter_threshold %.2f must exceed exit_threshold %.2f", t.EnterThreshold, t.ExitThreshold)
	}
	return nil
}
