package strategy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/matchbook/internal/domain"
	"github.com/alanyoungcy/matchbook/internal/indicator"
)

// position is the advisory flat/long state the momentum strategy keeps per
// symbol. It reflects emitted signals, not confirmed fills; the book is
// the source of truth for resting liquidity.
type position struct {
	inPosition bool
	entryPrice float64 // ticks
}

// Momentum trades a composite momentum score gated by RSI, MACD and the
// short moving average. While in a position, stop-loss and take-profit
// bounds preempt the normal rule set.
type Momentum struct {
	cfg       Config
	tracker   *Tracker
	positions map[string]*position
	logger    *slog.Logger
}

// NewMomentum creates a momentum strategy with its own price tracker.
func NewMomentum(cfg Config, logger *slog.Logger) *Momentum {
	return &Momentum{
		cfg:       cfg,
		tracker:   NewTracker(cfg.HistoryCapacity),
		positions: make(map[string]*position),
		logger:    logger.With(slog.String("strategy", "momentum")),
	}
}

// Name returns the strategy identifier.
func (m *Momentum) Name() string { return "momentum" }

// OnUpdate records TRADE prices and evaluates the rule set, emitting at
// most one signal.
func (m *Momentum) OnUpdate(u domain.MarketUpdate) []domain.Signal {
	if u.Kind != domain.UpdateTrade || u.Price == 0 {
		return nil
	}

	symbol := u.Symbol
	price := float64(u.Price)
	m.tracker.Track(symbol, price)

	pos, ok := m.positions[symbol]
	if !ok {
		pos = &position{}
		m.positions[symbol] = pos
	}

	// Exit bounds preempt everything else while in a position.
	if pos.inPosition {
		if sig := m.forcedExit(symbol, price, pos); sig != nil {
			return []domain.Signal{*sig}
		}
	}

	h := m.tracker.History(symbol)
	if h.Len() < m.cfg.LongPeriod+1 {
		return nil
	}

	momentum := indicator.MomentumScore(h, m.cfg.ShortPeriod, m.cfg.LongPeriod)
	rsi := indicator.RSI(h, m.cfg.RSIPeriod)
	macdLine, signalLine := indicator.MACD(h, 12, 26, 9)
	shortSMA := indicator.SMA(h, m.cfg.ShortPeriod)

	if !pos.inPosition {
		if momentum > m.cfg.MomentumThreshold &&
			rsi < m.cfg.RSIOverbought &&
			macdLine > signalLine &&
			price > shortSMA {
			pos.inPosition = true
			pos.entryPrice = price
			sig := m.signal(symbol, domain.SignalBuy, u.Price, confidence(momentum),
				fmt.Sprintf("momentum buy: score=%.3f rsi=%.1f macd=%.4f signal=%.4f price=%.0f sma%d=%.1f",
					momentum, rsi, macdLine, signalLine, price, m.cfg.ShortPeriod, shortSMA))
			m.logSignal(sig, momentum, rsi)
			return []domain.Signal{sig}
		}
		return nil
	}

	// In position: any weakening condition exits.
	weakening := momentum < 0 ||
		rsi > m.cfg.RSIOverbought ||
		macdLine < signalLine ||
		price < shortSMA
	if weakening {
		pos.inPosition = false
		pos.entryPrice = 0
		sig := m.signal(symbol, domain.SignalSell, u.Price, confidence(-momentum),
			fmt.Sprintf("momentum exit: score=%.3f rsi=%.1f macd=%.4f signal=%.4f price=%.0f sma%d=%.1f",
				momentum, rsi, macdLine, signalLine, price, m.cfg.ShortPeriod, shortSMA))
		m.logSignal(sig, momentum, rsi)
		return []domain.Signal{sig}
	}

	// Holding with no exit condition.
	return []domain.Signal{m.signal(symbol, domain.SignalHold, u.Price, 0.5,
		fmt.Sprintf("holding: score=%.3f entry=%.0f", momentum, pos.entryPrice))}
}

// forcedExit returns a SELL signal when the stop-loss or take-profit bound
// is breached, nil otherwise.
func (m *Momentum) forcedExit(symbol string, price float64, pos *position) *domain.Signal {
	if m.cfg.StopLossPct > 0 && price <= pos.entryPrice*(1-m.cfg.StopLossPct) {
		entry := pos.entryPrice
		pos.inPosition = false
		pos.entryPrice = 0
		sig := m.signal(symbol, domain.SignalSell, uint64(price+0.5), 1,
			fmt.Sprintf("stop loss: price=%.0f entry=%.0f limit=%.2f%%", price, entry, m.cfg.StopLossPct*100))
		m.logger.Info("stop loss triggered",
			slog.String("symbol", symbol),
			slog.Float64("price", price),
			slog.Float64("entry", entry),
		)
		return &sig
	}
	if m.cfg.TakeProfitPct > 0 && price >= pos.entryPrice*(1+m.cfg.TakeProfitPct) {
		entry := pos.entryPrice
		pos.inPosition = false
		pos.entryPrice = 0
		sig := m.signal(symbol, domain.SignalSell, uint64(price+0.5), 1,
			fmt.Sprintf("take profit: price=%.0f entry=%.0f target=%.2f%%", price, entry, m.cfg.TakeProfitPct*100))
		m.logger.Info("take profit triggered",
			slog.String("symbol", symbol),
			slog.Float64("price", price),
			slog.Float64("entry", entry),
		)
		return &sig
	}
	return nil
}

// OnTrade is bookkeeping only; momentum state advances on market updates.
func (m *Momentum) OnTrade(domain.TradeEvent) {}

// Close releases resources; Momentum has none.
func (m *Momentum) Close() error { return nil }

// InPosition reports the advisory position state for a symbol.
func (m *Momentum) InPosition(symbol string) bool {
	if pos, ok := m.positions[symbol]; ok {
		return pos.inPosition
	}
	return false
}

func (m *Momentum) signal(symbol string, typ domain.SignalType, price uint64, conf float64, reason string) domain.Signal {
	return domain.Signal{
		ID:         uuid.New().String(),
		Source:     m.Name(),
		Symbol:     symbol,
		Type:       typ,
		Price:      price,
		Quantity:   m.cfg.PositionSize,
		Confidence: conf,
		Reason:     reason,
		CreatedAt:  time.Now(),
	}
}

func (m *Momentum) logSignal(sig domain.Signal, momentum, rsi float64) {
	m.logger.Info("signal emitted",
		slog.String("symbol", sig.Symbol),
		slog.String("type", sig.Type.String()),
		slog.Uint64("price", sig.Price),
		slog.Float64("momentum", momentum),
		slog.Float64("rsi", rsi),
		slog.Float64("confidence", sig.Confidence),
	)
}

// confidence squashes a momentum magnitude into [0, 1].
func confidence(momentum float64) float64 {
	if momentum < 0 {
		momentum = 0
	}
	if momentum > 1 {
		momentum = 1
	}
	return momentum
}
