// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Environment variables that carry exchange credentials.
const (
	EnvAPIKey     = "COINBASE_API_KEY"
	EnvAPISecret  = "COINBASE_API_SECRET"
	EnvPassphrase = "COINBASE_API_PASSPHRASE"
)

// Supported exchange names.
const (
	ExchangeCoinbase = "coinbase"
	ExchangePaper    = "paper"
)

// App captures process-wide runtime settings such as name, environment, and logging.
type App struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// Exchange describes venue connectivity. Credentials normally come from the environment.
type Exchange struct {
	Name              string  `yaml:"name" validate:"oneof=coinbase paper"`
	Sandbox           bool    `yaml:"sandbox"`
	BaseURL           string  `yaml:"base_url" validate:"omitempty,url"`
	QuoteSource       string  `yaml:"quote_source" validate:"omitempty,oneof=rest websocket ws"`
	WebsocketURL      string  `yaml:"websocket_url" validate:"omitempty,url"`
	TimeoutMs         int     `yaml:"timeout_ms"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst" validate:"gte=1"`
	APIKey            string  `yaml:"api_key,omitempty"`
	APISecret         string  `yaml:"api_secret,omitempty"`
	Passphrase        string  `yaml:"passphrase,omitempty"`
}

// Trading holds the pair, starting balances and signal knobs of a run.
type Trading struct {
	Pair               string          `yaml:"pair" validate:"required"`
	Strategy           string          `yaml:"strategy"`
	AssetBalance       decimal.Decimal `yaml:"asset_balance"`
	AvailableFunds     decimal.Decimal `yaml:"available_funds"`
	TradeSize          decimal.Decimal `yaml:"trade_size"`
	PriceThresholdPct  float64         `yaml:"price_threshold_pct" validate:"gt=0"`
	VolumeThresholdPct float64         `yaml:"volume_threshold_pct" validate:"gt=0"`
	JournalPath        string          `yaml:"journal_path"`
}

// Settlement bounds the wait for an order to settle.
type Settlement struct {
	Delay       time.Duration `yaml:"delay" validate:"gte=0"`
	MaxAttempts int           `yaml:"max_attempts" validate:"gte=1"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
}

// Risk encodes guard-rails for how much size the executor may take on.
type Risk struct {
	MaxNotionalPerTrade decimal.Decimal `yaml:"max_notional_per_trade"`
}

// Paper captures paper-trading account settings.
type Paper struct {
	MaxPositionPerPair decimal.Decimal `yaml:"max_position_per_pair"`
}

// Metrics configures the Pushgateway target; empty URL disables pushing.
type Metrics struct {
	PushgatewayURL string `yaml:"pushgateway_url" validate:"omitempty,url"`
	Job            string `yaml:"job"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App        App        `yaml:"app"`
	Exchange   Exchange   `yaml:"exchange"`
	Trading    Trading    `yaml:"trading"`
	Settlement Settlement `yaml:"settlement"`
	Risk       Risk       `yaml:"risk"`
	Paper      Paper      `yaml:"paper"`
	Metrics    Metrics    `yaml:"metrics"`
}

// Default returns a config with every default applied. Balances and trade size stay zero.
func Default() *Config {
	cfg := seeded()
	cfg.ApplyDefaults()
	return cfg
}

// seeded holds the defaults ApplyDefaults cannot infer from a zero value.
func seeded() *Config {
	return &Config{
		Settlement: Settlement{
			Delay:   15 * time.Second,
			Timeout: 4 * time.Minute,
		},
	}
}

// Load reads a YAML file from disk, fills defaults and overlays credentials from the environment.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	// settlement keys missing from the file keep their seeded value, an explicit 0s is kept
	config := seeded()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.ApplyDefaults()
	config.ApplyEnv()
	return config, nil
}

// Save persists a Config struct to disk as YAML. Credentials are never written.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	out := *cfg
	out.Exchange.APIKey, out.Exchange.APISecret, out.Exchange.Passphrase = "", "", ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyDefaults fills zero values. Settlement delay and timeout are left alone because zero is a
// valid setting for both (poll at once, no overall bound); Default carries their defaults.
func (c *Config) ApplyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "revertbot"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Exchange.Name == "" {
		c.Exchange.Name = ExchangePaper
	}
	if c.Exchange.QuoteSource == "" {
		c.Exchange.QuoteSource = "rest"
	}
	if c.Exchange.TimeoutMs <= 0 {
		c.Exchange.TimeoutMs = 10000
	}
	if c.Exchange.RequestsPerSecond <= 0 {
		c.Exchange.RequestsPerSecond = 3
	}
	if c.Exchange.Burst <= 0 {
		c.Exchange.Burst = 1
	}
	if c.Trading.Pair == "" {
		c.Trading.Pair = "BTC-USD"
	}
	if c.Trading.Strategy == "" {
		c.Trading.Strategy = "mean_reversion"
	}
	if c.Trading.PriceThresholdPct <= 0 {
		c.Trading.PriceThresholdPct = 15
	}
	if c.Trading.VolumeThresholdPct <= 0 {
		c.Trading.VolumeThresholdPct = 25
	}
	if c.Settlement.MaxAttempts <= 0 {
		c.Settlement.MaxAttempts = 5
	}
	if c.Settlement.MaxBackoff <= 0 {
		c.Settlement.MaxBackoff = time.Minute
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = c.App.Name
	}
}

// ApplyEnv loads .env (best-effort) and takes credentials from the environment when set.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load() // best-effort
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv(EnvAPISecret); v != "" {
		c.Exchange.APISecret = v
	}
	if v := os.Getenv(EnvPassphrase); v != "" {
		c.Exchange.Passphrase = v
	}
}

// Validate rejects settings a run cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if err := validator.New().Struct(c); err != nil {
		errs = append(errs, err)
	}
	if c.Exchange.Name == ExchangeCoinbase &&
		(c.Exchange.APIKey == "" || c.Exchange.APISecret == "" || c.Exchange.Passphrase == "") {
		errs = append(errs, fmt.Errorf("coinbase credentials missing: set %s, %s and %s", EnvAPIKey, EnvAPISecret, EnvPassphrase))
	}
	if !c.Trading.TradeSize.IsPositive() {
		errs = append(errs, errors.New("trading.trade_size must be positive"))
	}
	if c.Trading.AssetBalance.IsNegative() {
		errs = append(errs, errors.New("trading.asset_balance must not be negative"))
	}
	if c.Trading.AvailableFunds.IsNegative() {
		errs = append(errs, errors.New("trading.available_funds must not be negative"))
	}
	return errors.Join(errs...)
}
