package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MATCHBOOK_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been
// validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: decode %s: %w", path, err)
			}
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MATCHBOOK_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators tune a deployment without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Engine ──
	setFloat64(&cfg.Engine.TickScale, "MATCHBOOK_ENGINE_TICK_SCALE")
	setInt(&cfg.Engine.TradeRetention, "MATCHBOOK_ENGINE_TRADE_RETENTION")
	setBool(&cfg.Engine.Debug, "MATCHBOOK_ENGINE_DEBUG")

	// ── Strategy ──
	setStringSlice(&cfg.Strategy.Active, "MATCHBOOK_STRATEGY_ACTIVE")
	setFloat64(&cfg.Strategy.MomentumThreshold, "MATCHBOOK_STRATEGY_MOMENTUM_THRESHOLD")
	setFloat64(&cfg.Strategy.RSIOversold, "MATCHBOOK_STRATEGY_RSI_OVERSOLD")
	setFloat64(&cfg.Strategy.RSIOverbought, "MATCHBOOK_STRATEGY_RSI_OVERBOUGHT")
	setInt(&cfg.Strategy.ShortPeriod, "MATCHBOOK_STRATEGY_SHORT_PERIOD")
	setInt(&cfg.Strategy.LongPeriod, "MATCHBOOK_STRATEGY_LONG_PERIOD")
	setInt(&cfg.Strategy.RSIPeriod, "MATCHBOOK_STRATEGY_RSI_PERIOD")
	setUint64(&cfg.Strategy.PositionSize, "MATCHBOOK_STRATEGY_POSITION_SIZE")
	setFloat64(&cfg.Strategy.StopLossPct, "MATCHBOOK_STRATEGY_STOP_LOSS_PCT")
	setFloat64(&cfg.Strategy.TakeProfitPct, "MATCHBOOK_STRATEGY_TAKE_PROFIT_PCT")
	setFloat64(&cfg.Strategy.StdDevThreshold, "MATCHBOOK_STRATEGY_STD_DEV_THRESHOLD")

	// ── Risk ──
	setUint64(&cfg.Risk.MaxOrderQuantity, "MATCHBOOK_RISK_MAX_ORDER_QUANTITY")
	setUint64(&cfg.Risk.MaxNotionalPerOrder, "MATCHBOOK_RISK_MAX_NOTIONAL_PER_ORDER")
	setInt(&cfg.Risk.MaxOrdersPerBatch, "MATCHBOOK_RISK_MAX_ORDERS_PER_BATCH")
	setUint64(&cfg.Risk.MaxDailyVolume, "MATCHBOOK_RISK_MAX_DAILY_VOLUME")
	setFloat64(&cfg.Risk.MaxPositionPct, "MATCHBOOK_RISK_MAX_POSITION_PCT")

	// ── Feed ──
	setStr(&cfg.Feed.Source, "MATCHBOOK_FEED_SOURCE")
	setStringSlice(&cfg.Feed.Symbols, "MATCHBOOK_FEED_SYMBOLS")
	setInt(&cfg.Feed.Rate, "MATCHBOOK_FEED_RATE")
	setStr(&cfg.Feed.WSURL, "MATCHBOOK_FEED_WS_URL")
	setStringSlice(&cfg.Feed.KafkaBrokers, "MATCHBOOK_FEED_KAFKA_BROKERS")
	setStr(&cfg.Feed.KafkaTopic, "MATCHBOOK_FEED_KAFKA_TOPIC")
	setStr(&cfg.Feed.KafkaGroupID, "MATCHBOOK_FEED_KAFKA_GROUP_ID")

	// ── Pool ──
	setInt(&cfg.Pool.Workers, "MATCHBOOK_POOL_WORKERS")
	setInt(&cfg.Pool.Capacity, "MATCHBOOK_POOL_CAPACITY")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "MATCHBOOK_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "MATCHBOOK_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MATCHBOOK_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MATCHBOOK_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MATCHBOOK_REDIS_POOL_SIZE")

	// ── Journal ──
	setBool(&cfg.Journal.Enabled, "MATCHBOOK_JOURNAL_ENABLED")
	setStr(&cfg.Journal.Dir, "MATCHBOOK_JOURNAL_DIR")

	// ── Metrics ──
	setBool(&cfg.Metrics.Enabled, "MATCHBOOK_METRICS_ENABLED")
	setStr(&cfg.Metrics.Addr, "MATCHBOOK_METRICS_ADDR")

	// ── Top-level ──
	setStr(&cfg.Mode, "MATCHBOOK_MODE")
	setStr(&cfg.LogLevel, "MATCHBOOK_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
