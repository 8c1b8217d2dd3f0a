package strategy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

// MeanReversion buys when the price sits significantly below the rolling
// mean and sells an open position when it sits significantly above.
// "Significantly" is measured in multiples of the trailing standard
// deviation (StdDevThreshold).
type MeanReversion struct {
	cfg       Config
	tracker   *Tracker
	positions map[string]*position
	logger    *slog.Logger
}

// NewMeanReversion creates a mean-reversion strategy with its own tracker.
func NewMeanReversion(cfg Config, logger *slog.Logger) *MeanReversion {
	return &MeanReversion{
		cfg:       cfg,
		tracker:   NewTracker(cfg.HistoryCapacity),
		positions: make(map[string]*position),
		logger:    logger.With(slog.String("strategy", "mean_reversion")),
	}
}

// Name returns the strategy identifier.
func (mr *MeanReversion) Name() string { return "mean_reversion" }

// OnUpdate evaluates whether the latest trade price deviates enough from
// the rolling mean to warrant a signal.
func (mr *MeanReversion) OnUpdate(u domain.MarketUpdate) []domain.Signal {
	if u.Kind != domain.UpdateTrade || u.Price == 0 {
		return nil
	}

	symbol := u.Symbol
	price := float64(u.Price)
	mr.tracker.Track(symbol, price)

	avg := mr.tracker.Mean(symbol)
	vol := mr.tracker.Volatility(symbol)
	if vol == 0 || avg == 0 {
		// Not enough data yet.
		return nil
	}

	pos, ok := mr.positions[symbol]
	if !ok {
		pos = &position{}
		mr.positions[symbol] = pos
	}

	threshold := mr.cfg.StdDevThreshold
	deviation := (price - avg) / vol

	switch {
	case deviation <= -threshold && !pos.inPosition:
		pos.inPosition = true
		pos.entryPrice = price
		sig := mr.signal(symbol, domain.SignalBuy, u.Price, deviation, avg, vol)
		mr.logger.Info("mean reversion BUY signal",
			slog.String("symbol", symbol),
			slog.Float64("price", price),
			slog.Float64("avg", avg),
			slog.Float64("deviation", deviation),
		)
		return []domain.Signal{sig}

	case deviation >= threshold && pos.inPosition:
		pos.inPosition = false
		pos.entryPrice = 0
		sig := mr.signal(symbol, domain.SignalSell, u.Price, deviation, avg, vol)
		mr.logger.Info("mean reversion SELL signal",
			slog.String("symbol", symbol),
			slog.Float64("price", price),
			slog.Float64("avg", avg),
			slog.Float64("deviation", deviation),
		)
		return []domain.Signal{sig}
	}

	return []domain.Signal{{
		ID:         uuid.New().String(),
		Source:     mr.Name(),
		Symbol:     symbol,
		Type:       domain.SignalHold,
		Price:      u.Price,
		Quantity:   mr.cfg.PositionSize,
		Confidence: 0.5,
		Reason:     fmt.Sprintf("holding: dev=%.2f sigma", deviation),
		CreatedAt:  time.Now(),
	}}
}

// OnTrade is bookkeeping only.
func (mr *MeanReversion) OnTrade(domain.TradeEvent) {}

// Close releases resources; MeanReversion has none.
func (mr *MeanReversion) Close() error { return nil }

func (mr *MeanReversion) signal(symbol string, typ domain.SignalType, price uint64, deviation, avg, vol float64) domain.Signal {
	conf := deviation / (mr.cfg.StdDevThreshold * 2)
	if conf < 0 {
		conf = -conf
	}
	if conf > 1 {
		conf = 1
	}
	return domain.Signal{
		ID:         uuid.New().String(),
		Source:     mr.Name(),
		Symbol:     symbol,
		Type:       typ,
		Price:      price,
		Quantity:   mr.cfg.PositionSize,
		Confidence: conf,
		Reason:     fmt.Sprintf("mean reversion %s: price=%d avg=%.1f dev=%.2f sigma vol=%.2f", typ, price, avg, deviation, vol),
		CreatedAt:  time.Now(),
	}
}
