// Package config loads the service configuration from YAML with struct-tag
// defaults, environment overrides and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Akondltd/radbot/internal/backtest"
	"github.com/Akondltd/radbot/internal/engine"
	"github.com/Akondltd/radbot/internal/indicator"
	"github.com/Akondltd/radbot/internal/logger"
	"github.com/Akondltd/radbot/internal/optimizer"
	"github.com/Akondltd/radbot/internal/sizing"
	"github.com/Akondltd/radbot/internal/strategy"
)

var validate = validator.New()

type Config struct {
	Environment string             `yaml:"environment" default:"development" validate:"oneof=development staging production"`
	Log         logger.Config      `yaml:"log"`
	Engine      EngineConfig       `yaml:"engine"`
	Indicators  indicator.Params   `yaml:"indicators"`
	Kelly       sizing.KellyConfig `yaml:"kelly"`
	Storage     StorageConfig      `yaml:"storage"`
	Redis       RedisConfig        `yaml:"redis"`
	Kafka       KafkaConfig        `yaml:"kafka"`
	Feed        FeedConfig         `yaml:"feed"`
	Quote       QuoteConfig        `yaml:"quote"`
	Execution   ExecutionConfig    `yaml:"execution"`
	Metrics     MetricsConfig      `yaml:"metrics"`
	Trades      []TradeConfig      `yaml:"trades" validate:"dive"`
}

type EngineConfig struct {
	TickInterval     time.Duration `yaml:"tick_interval" default:"10m" validate:"gt=0"`
	OptimizeInterval time.Duration `yaml:"optimize_interval" default:"168h" validate:"gt=0"`
	WindowSize       int           `yaml:"window_size" default:"150" validate:"min=2"`
	MinFlipInterval  time.Duration `yaml:"min_flip_interval" default:"60m" validate:"gte=0"`
	HistoryWindow    time.Duration `yaml:"history_window" default:"2160h" validate:"gt=0"`
	MaxImpactPct     float64       `yaml:"max_impact_pct" default:"5" validate:"gt=0,lte=100"`
	ManualAgreement  float64       `yaml:"manual_agreement" default:"0.5" validate:"gt=0,lte=1"`
	RegimeLookback   int           `yaml:"regime_lookback" default:"50" validate:"min=10"`
	MinCandles       int           `yaml:"min_candles" default:"100" validate:"min=1"`
	BacktestLookback int           `yaml:"backtest_lookback" default:"100" validate:"min=1"`
	Workers          int           `yaml:"workers" validate:"gte=0"` // 0 = GOMAXPROCS
	Concurrency      int           `yaml:"concurrency" default:"4" validate:"min=1"` // trades ticked in parallel
}

type StorageConfig struct {
	Backend            string `yaml:"backend" default:"memory" validate:"oneof=memory sql"`
	PostgresDSN        string `yaml:"postgres_dsn" validate:"required_if=Backend sql"`
	PostgresMaxConns   int32  `yaml:"postgres_max_conns" default:"8" validate:"gte=1"`
	ClickHouseDSN      string `yaml:"clickhouse_dsn" validate:"required_if=Backend sql"`
	ClickHouseDatabase string `yaml:"clickhouse_database" default:"radbot"`
	Migrate            bool   `yaml:"migrate"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr" default:"localhost:6379" validate:"required_if=Enabled true"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"gte=0"`
	LockTTL  time.Duration `yaml:"lock_ttl" default:"5m" validate:"gt=0"`
}

type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers" validate:"required_if=Enabled true"`
	Topic        string        `yaml:"topic" default:"radbot.events" validate:"required_if=Enabled true"`
	RequiredAcks int           `yaml:"required_acks" default:"-1" validate:"oneof=-1 0 1"`
	BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

type FeedConfig struct {
	URL            string        `yaml:"url"`
	Granularity    time.Duration `yaml:"granularity" default:"10m" validate:"gt=0"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s" validate:"gt=0"`
	PingInterval   time.Duration `yaml:"ping_interval" default:"30s" validate:"gt=0"`
}

type QuoteConfig struct {
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
	MaxRetries int           `yaml:"max_retries" default:"3" validate:"gte=0"`
	StaticPct  float64       `yaml:"static_pct" validate:"gte=0"` // used when url is empty
}

type ExecutionConfig struct {
	Mode   string  `yaml:"mode" default:"paper" validate:"oneof=paper"`
	FeePct float64 `yaml:"fee_pct" default:"0.3" validate:"gte=0,lt=100"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" default:":9090"`
	Path    string `yaml:"path" default:"/metrics"`
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Parse decodes YAML and fills unset fields from defaults. It does not validate.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// An empty path starts from defaults.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if path == "" {
		c, err = Default()
	} else {
		var b []byte
		if b, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		c, err = Parse(b)
	}
	if err != nil {
		return nil, err
	}

	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("RADBOT_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := getenv("STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := getenv("POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := getenv("CLICKHOUSE_DSN"); v != "" {
		c.Storage.ClickHouseDSN = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("FEED_URL"); v != "" {
		c.Feed.URL = v
	}
	if v := getenv("QUOTE_URL"); v != "" {
		c.Quote.URL = v
	}
	if v := getenv("METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
		c.Metrics.Enabled = true
	}
	if v := getenv("MAX_IMPACT_PCT"); v != "" {
		pct, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse MAX_IMPACT_PCT: %w", err)
		}
		c.Engine.MaxImpactPct = pct
	}
	return nil
}

// Validate checks struct-tag rules and cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Indicators.MACDFast >= c.Indicators.MACDSlow {
		return fmt.Errorf("indicators.macd_fast must be below macd_slow")
	}
	if c.Indicators.MAShort >= c.Indicators.MALong {
		return fmt.Errorf("indicators.ma_short must be below ma_long")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	seen := make(map[string]bool, len(c.Trades))
	for _, t := range c.Trades {
		if seen[t.ID] {
			return fmt.Errorf("duplicate trade id %q", t.ID)
		}
		seen[t.ID] = true
		if _, err := t.ToState(); err != nil {
			return err
		}
	}
	return nil
}

// EngineConfig maps the configuration onto the decision loop settings.
func (c *Config) EngineConfig() engine.Config {
	bt := backtest.Config{
		Indicators:     c.Indicators,
		RegimeLookback: c.Engine.RegimeLookback,
		Lookback:       c.Engine.BacktestLookback,
	}
	opt := optimizer.DefaultConfig()
	opt.MinCandles = c.Engine.MinCandles
	opt.Backtest = bt
	if c.Engine.Workers > 0 {
		opt.Workers = c.Engine.Workers
	}

	return engine.Config{
		WindowSize:      c.Engine.WindowSize,
		MinFlipInterval: c.Engine.MinFlipInterval,
		HistoryWindow:   c.Engine.HistoryWindow,
		MaxImpactPct:    c.Engine.MaxImpactPct,
		Kelly:           c.Kelly,
		Strategy: strategy.Config{
			Indicators:      c.Indicators,
			ManualAgreement: c.Engine.ManualAgreement,
			RegimeLookback:  c.Engine.RegimeLookback,
		},
		Optimizer: opt,
	}
}
