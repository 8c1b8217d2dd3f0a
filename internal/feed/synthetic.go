package feed

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

// SyntheticConfig tunes the synthetic update generator.
type SyntheticConfig struct {
	Symbols       []string
	Rate          int     // updates per second
	PriceMin      uint64  // ticks
	PriceMax      uint64  // ticks
	MaxQuantity   uint64
	TradeFraction float64 // share of TRADE updates; remainder split between QUOTE and BOOK_UPDATE
	Seed          int64   // 0 seeds from the clock
}

// Synthetic produces a random stream of market updates at a fixed rate. It
// exists for load testing and the sim run mode; live deployments use the
// websocket or kafka sources instead.
type Synthetic struct {
	cfg    SyntheticConfig
	rng    *rand.Rand
	logger *slog.Logger
}

// NewSynthetic creates a generator. Zero-value fields fall back to a
// 100k-110k tick band, quantity 1-1000, 90% trades, 1000 updates/sec.
func NewSynthetic(cfg SyntheticConfig, logger *slog.Logger) *Synthetic {
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []string{"SYN"}
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1000
	}
	if cfg.PriceMax <= cfg.PriceMin {
		cfg.PriceMin = 100_000
		cfg.PriceMax = 110_000
	}
	if cfg.MaxQuantity == 0 {
		cfg.MaxQuantity = 1000
	}
	if cfg.TradeFraction <= 0 || cfg.TradeFraction > 1 {
		cfg.TradeFraction = 0.9
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Synthetic{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger.With(slog.String("component", "synthetic_feed")),
	}
}

// Run publishes updates until ctx is cancelled.
func (s *Synthetic) Run(ctx context.Context, publish func(domain.MarketUpdate)) error {
	interval := time.Second / time.Duration(s.cfg.Rate)
	if interval <= 0 {
		interval = time.Microsecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("synthetic feed started",
		slog.Int("rate", s.cfg.Rate),
		slog.Int("symbols", len(s.cfg.Symbols)),
	)
	defer s.logger.Info("synthetic feed stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			publish(s.next())
		}
	}
}

// next draws one random update.
func (s *Synthetic) next() domain.MarketUpdate {
	u := domain.MarketUpdate{
		Symbol:    s.cfg.Symbols[s.rng.Intn(len(s.cfg.Symbols))],
		Price:     s.cfg.PriceMin + uint64(s.rng.Int63n(int64(s.cfg.PriceMax-s.cfg.PriceMin+1))),
		Quantity:  1 + uint64(s.rng.Int63n(int64(s.cfg.MaxQuantity))),
		Side:      domain.Side(s.rng.Intn(2)),
		Timestamp: time.Now(),
	}
	switch roll := s.rng.Float64(); {
	case roll < s.cfg.TradeFraction:
		u.Kind = domain.UpdateTrade
	case roll < s.cfg.TradeFraction+(1-s.cfg.TradeFraction)/2:
		u.Kind = domain.UpdateQuote
	default:
		u.Kind = domain.UpdateBookUpdate
	}
	return u
}
