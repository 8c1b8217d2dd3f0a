package strategy

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

// OrderSink accepts candidate orders; in production it is the matching
// engine.
type OrderSink interface {
	Submit(o *domain.Order) error
}

// RiskFilter gates candidate order batches before submission.
type RiskFilter interface {
	Apply(orders []*domain.Order) []*domain.Order
}

// orderRef attributes an open order to the strategy that produced it so
// trade events can be folded back into advisory positions.
type orderRef struct {
	strategy  string
	symbol    string
	side      domain.Side
	submitted uint64
	filled    uint64
}

// Engine drives the registered strategies: it subscribes to the market
// fan-out, collects signals per update, translates actionable signals into
// LIMIT orders, runs them through the risk filter, and submits survivors
// to the order sink. Trade events reported by the matching engine update
// each strategy's advisory position.
type Engine struct {
	registry *Registry
	risk     RiskFilter
	sink     OrderSink
	alloc    *domain.OrderIDAllocator
	prices   domain.PriceCache // optional
	logger   *slog.Logger

	mu        sync.Mutex
	open      map[domain.OrderID]*orderRef
	positions map[string]map[string]*domain.Position // strategy -> symbol

	signalsEmitted  atomic.Uint64
	ordersSubmitted atomic.Uint64
	submitErrors    atomic.Uint64
}

// NewEngine creates a strategy engine. prices may be nil when no cache is
// wired.
func NewEngine(registry *Registry, riskFilter RiskFilter, sink OrderSink, alloc *domain.OrderIDAllocator, prices domain.PriceCache, logger *slog.Logger) *Engine {
	return &Engine{
		registry:  registry,
		risk:      riskFilter,
		sink:      sink,
		alloc:     alloc,
		prices:    prices,
		logger:    logger.With(slog.String("component", "strategy_engine")),
		open:      make(map[domain.OrderID]*orderRef),
		positions: make(map[string]map[string]*domain.Position),
	}
}

// Name implements the fan-out subscriber interface.
func (e *Engine) Name() string { return "strategy_engine" }

// OnUpdate delivers one market update to every registered strategy,
// converts the actionable signals into orders, and submits the batch
// through the risk filter.
func (e *Engine) OnUpdate(u domain.MarketUpdate) {
	if e.prices != nil && u.Kind == domain.UpdateTrade && u.Price > 0 {
		if err := e.prices.SetPrice(context.Background(), u.Symbol, float64(u.Price), u.Timestamp); err != nil {
			e.logger.Debug("price cache update failed",
				slog.String("symbol", u.Symbol),
				slog.String("error", err.Error()),
			)
		}
	}

	var batch []*domain.Order
	var refs []*orderRef
	for _, s := range e.registry.All() {
		for _, sig := range s.OnUpdate(u) {
			e.signalsEmitted.Add(1)
			if !sig.Type.Actionable() || sig.Quantity == 0 || sig.Price == 0 {
				continue
			}
			o := e.toOrder(sig)
			batch = append(batch, o)
			refs = append(refs, &orderRef{
				strategy:  sig.Source,
				symbol:    sig.Symbol,
				side:      o.Side,
				submitted: o.Quantity,
			})
		}
	}
	if len(batch) == 0 {
		return
	}

	accepted := e.risk.Apply(batch)
	for _, o := range accepted {
		// Locate the ref for this order; batches are small.
		var ref *orderRef
		for i, cand := range batch {
			if cand == o {
				ref = refs[i]
				break
			}
		}
		e.mu.Lock()
		e.open[o.ID] = ref
		e.mu.Unlock()

		if err := e.sink.Submit(o); err != nil {
			e.submitErrors.Add(1)
			e.mu.Lock()
			delete(e.open, o.ID)
			e.mu.Unlock()
			e.logger.Warn("order rejected by engine",
				slog.Uint64("order_id", uint64(o.ID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		e.ordersSubmitted.Add(1)
	}
}

// toOrder translates an actionable signal into a LIMIT order at the target
// price.
func (e *Engine) toOrder(sig domain.Signal) *domain.Order {
	side := domain.SideBuy
	if sig.Type == domain.SignalSell {
		side = domain.SideSell
	}
	return domain.NewOrder(e.alloc.Next(), side, domain.OrderTypeLimit, sig.Price, sig.Quantity)
}

// OnTradeEvent folds a matching-engine trade into the advisory positions
// of the strategies whose orders participated, then forwards the event to
// every strategy's bookkeeping hook. It is wired as the engine's trade
// handler and must not submit orders.
func (e *Engine) OnTradeEvent(ev domain.TradeEvent) {
	e.mu.Lock()
	e.applyFill(ev.BuyOrderID, domain.SideBuy, ev)
	e.applyFill(ev.SellOrderID, domain.SideSell, ev)
	e.mu.Unlock()

	for _, s := range e.registry.All() {
		s.OnTrade(ev)
	}
}

// applyFill updates one side's position record. Caller holds e.mu.
func (e *Engine) applyFill(id domain.OrderID, side domain.Side, ev domain.TradeEvent) {
	ref, ok := e.open[id]
	if !ok || ref.side != side {
		return
	}
	byStrategy, ok := e.positions[ref.strategy]
	if !ok {
		byStrategy = make(map[string]*domain.Position)
		e.positions[ref.strategy] = byStrategy
	}
	pos, ok := byStrategy[ref.symbol]
	if !ok {
		pos = &domain.Position{Symbol: ref.symbol}
		byStrategy[ref.symbol] = pos
	}
	pos.ApplyFill(side, ev.Price, ev.Quantity)

	ref.filled += ev.Quantity
	if ref.filled >= ref.submitted {
		delete(e.open, id)
	}
}

// Position returns a copy of the advisory position a strategy holds in a
// symbol. The zero Position is returned when nothing was filled yet.
func (e *Engine) Position(strategyName, symbol string) domain.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	if byStrategy, ok := e.positions[strategyName]; ok {
		if pos, ok := byStrategy[symbol]; ok {
			return *pos
		}
	}
	return domain.Position{Symbol: symbol}
}

// EngineStats is a snapshot of the strategy engine counters.
type EngineStats struct {
	SignalsEmitted  uint64
	OrdersSubmitted uint64
	SubmitErrors    uint64
}

// Stats returns the engine counters.
func (e *Engine) Stats() EngineStats {
	return EngineStats{
		SignalsEmitted:  e.signalsEmitted.Load(),
		OrdersSubmitted: e.ordersSubmitted.Load(),
		SubmitErrors:    e.submitErrors.Load(),
	}
}
