// Package config defines the top-level configuration for matchbook and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by MATCHBOOK_* environment
// variables.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Strategy StrategyConfig `toml:"strategy"`
	Risk     RiskConfig     `toml:"risk"`
	Feed     FeedConfig     `toml:"feed"`
	Pool     PoolConfig     `toml:"pool"`
	Redis    RedisConfig    `toml:"redis"`
	Journal  JournalConfig  `toml:"journal"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// EngineConfig holds matching-engine parameters.
type EngineConfig struct {
	TickScale      float64 `toml:"tick_scale"` // currency units per tick
	TradeRetention int     `toml:"trade_retention"`
	Debug          bool    `toml:"debug"` // invariant breaches become fatal
	AuditLimit     int     `toml:"audit_limit"`
}

// StrategyConfig holds trading strategy parameters. Active lists the
// strategies to run; parameters are shared across them.
type StrategyConfig struct {
	Active            []string `toml:"active"`
	MomentumThreshold float64  `toml:"momentum_threshold"`
	RSIOversold       float64  `toml:"rsi_oversold"`
	RSIOverbought     float64  `toml:"rsi_overbought"`
	ShortPeriod       int      `toml:"short_period"`
	LongPeriod        int      `toml:"long_period"`
	RSIPeriod         int      `toml:"rsi_period"`
	PositionSize      uint64   `toml:"position_size"`
	StopLossPct       float64  `toml:"stop_loss_pct"`
	TakeProfitPct     float64  `toml:"take_profit_pct"`
	StdDevThreshold   float64  `toml:"std_dev_threshold"`
	HistoryCapacity   int      `toml:"history_capacity"`
}

// RiskConfig holds the pre-trade limit parameters. Zero disables a check.
type RiskConfig struct {
	MaxOrderQuantity    uint64  `toml:"max_order_quantity"`
	MaxNotionalPerOrder uint64  `toml:"max_notional_per_order"`
	MaxOrdersPerBatch   int     `toml:"max_orders_per_batch"`
	MaxDailyVolume      uint64  `toml:"max_daily_volume"`
	MaxPositionPct      float64 `toml:"max_position_pct"`
}

// FeedConfig selects and tunes the market-data source.
type FeedConfig struct {
	Source string `toml:"source"` // "synthetic", "ws", "kafka"

	Symbols       []string `toml:"symbols"`
	Rate          int      `toml:"rate"` // synthetic updates per second
	PriceMin      uint64   `toml:"price_min"`
	PriceMax      uint64   `toml:"price_max"`
	MaxQuantity   uint64   `toml:"max_quantity"`
	TradeFraction float64  `toml:"trade_fraction"`
	Seed          int64    `toml:"seed"`

	WSURL string `toml:"ws_url"`

	KafkaBrokers []string `toml:"kafka_brokers"`
	KafkaTopic   string   `toml:"kafka_topic"`
	KafkaGroupID string   `toml:"kafka_group_id"`
}

// PoolConfig sizes the worker surface used for subscriber delivery. Zero
// workers selects synchronous delivery.
type PoolConfig struct {
	Workers  int `toml:"workers"`
	Capacity int `toml:"capacity"`
}

// RedisConfig holds Redis connection parameters for the price cache.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
}

// JournalConfig enables the append-only trade journal.
type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// MetricsConfig enables the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			TickScale:      0.01,
			TradeRetention: 4096,
			AuditLimit:     1024,
		},
		Strategy: StrategyConfig{
			Active:            []string{"momentum"},
			MomentumThreshold: 0.3,
			RSIOversold:       30,
			RSIOverbought:     70,
			ShortPeriod:       5,
			LongPeriod:        20,
			RSIPeriod:         14,
			PositionSize:      50,
			StopLossPct:       0.02,
			TakeProfitPct:     0.04,
			StdDevThreshold:   2.0,
			HistoryCapacity:   1000,
		},
		Risk: RiskConfig{
			MaxOrderQuantity:  1000,
			MaxOrdersPerBatch: 16,
		},
		Feed: FeedConfig{
			Source:        "synthetic",
			Symbols:       []string{"SYN"},
			Rate:          1000,
			PriceMin:      100_000,
			PriceMax:      110_000,
			MaxQuantity:   1000,
			TradeFraction: 0.9,
		},
		Pool: PoolConfig{
			Workers:  4,
			Capacity: 4096,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Journal: JournalConfig{
			Dir: "data/journal",
		},
		Metrics: MetricsConfig{
			Addr: ":9091",
		},
		Mode:     "sim",
		LogLevel: "info",
	}
}

// Validate checks the configuration for inconsistencies. It returns the
// first problem found.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "sim", "feed":
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}

	if c.Engine.TickScale <= 0 {
		return fmt.Errorf("config: engine.tick_scale must be positive")
	}
	if c.Engine.TradeRetention < 0 {
		return fmt.Errorf("config: engine.trade_retention must not be negative")
	}

	if len(c.Strategy.Active) == 0 {
		return fmt.Errorf("config: strategy.active must list at least one strategy")
	}
	for _, name := range c.Strategy.Active {
		switch name {
		case "momentum", "mean_reversion":
		default:
			return fmt.Errorf("config: unknown strategy %q", name)
		}
	}
	if c.Strategy.ShortPeriod <= 0 || c.Strategy.LongPeriod <= 0 {
		return fmt.Errorf("config: strategy periods must be positive")
	}
	if c.Strategy.ShortPeriod >= c.Strategy.LongPeriod {
		return fmt.Errorf("config: strategy.short_period must be below long_period")
	}
	if c.Strategy.PositionSize == 0 {
		return fmt.Errorf("config: strategy.position_size must be positive")
	}
	if c.Strategy.RSIOversold >= c.Strategy.RSIOverbought {
		return fmt.Errorf("config: strategy.rsi_oversold must be below rsi_overbought")
	}

	switch c.Feed.Source {
	case "synthetic":
		if strings.ToLower(c.Mode) == "feed" {
			return fmt.Errorf("config: feed mode requires the ws or kafka source")
		}
		if c.Feed.Rate <= 0 {
			return fmt.Errorf("config: feed.rate must be positive")
		}
		if c.Feed.PriceMax <= c.Feed.PriceMin {
			return fmt.Errorf("config: feed.price_max must be above price_min")
		}
	case "ws":
		if c.Feed.WSURL == "" {
			return fmt.Errorf("config: feed.ws_url is required for the ws source")
		}
	case "kafka":
		if len(c.Feed.KafkaBrokers) == 0 || c.Feed.KafkaTopic == "" {
			return fmt.Errorf("config: feed.kafka_brokers and feed.kafka_topic are required for the kafka source")
		}
	default:
		return fmt.Errorf("config: unknown feed source %q", c.Feed.Source)
	}

	if c.Risk.MaxPositionPct < 0 || c.Risk.MaxPositionPct > 1 {
		return fmt.Errorf("config: risk.max_position_pct must be in [0, 1]")
	}

	if c.Journal.Enabled && c.Journal.Dir == "" {
		return fmt.Errorf("config: journal.dir is required when the journal is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("config: metrics.addr is required when metrics are enabled")
	}
	return nil
}
