// Package book implements a single-symbol price-time priority limit order
// book and its matching engine. The engine owns both sides and the order-id
// index; all mutation is serialized behind one lock so every submit is
// observed atomically.
package book

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

const defaultTradeRetention = 4096

// indexEntry locates a resting order. An entry exists iff an order with that
// id rests at the recorded price on the recorded side.
type indexEntry struct {
	price uint64
	side  domain.Side
}

// EngineMetrics is a telemetry snapshot of the engine counters.
type EngineMetrics struct {
	ProcessedOrders uint64
	MatchedTrades   uint64
	AvgLatencyNanos float64
}

// TradeHandler observes each trade event as it is produced. Handlers run
// while the engine lock is held and must not call back into the engine.
type TradeHandler func(domain.TradeEvent)

// Option customizes an Engine at construction.
type Option func(*Engine)

// WithAudit injects a sink for internal-consistency observations.
func WithAudit(sink domain.AuditSink) Option {
	return func(e *Engine) { e.audit = sink }
}

// WithJournal attaches an append-only trade-event journal. Journal errors
// are counted, never surfaced on the matching path.
func WithJournal(j domain.TradeJournal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithTradeHandler registers an observer for trade events.
func WithTradeHandler(h TradeHandler) Option {
	return func(e *Engine) { e.onTrade = h }
}

// WithLatencyObserver registers a per-submit latency callback, e.g. a
// histogram's Observe.
func WithLatencyObserver(fn func(time.Duration)) Option {
	return func(e *Engine) { e.observeLatency = fn }
}

// WithTradeRetention bounds the in-memory trade-event buffer.
func WithTradeRetention(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.retention = n
		}
	}
}

// WithDebug makes internal invariant breaches fatal instead of best-effort
// cleanup.
func WithDebug(debug bool) Option {
	return func(e *Engine) { e.debug = debug }
}

// Engine matches incoming orders against the opposite side of the book and
// rests unfilled LIMIT remainders. All public methods are safe for
// concurrent use; they may block contending callers but never sleep.
type Engine struct {
	mu    sync.Mutex
	bids  *side
	asks  *side
	index map[domain.OrderID]indexEntry

	// bounded ring of recent trade events
	trades     []domain.TradeEvent
	tradeNext  int
	tradeCount int
	retention  int

	audit          domain.AuditSink
	journal        domain.TradeJournal
	onTrade        TradeHandler
	observeLatency func(time.Duration)
	debug          bool
	logger         *slog.Logger

	processed    atomic.Uint64
	matched      atomic.Uint64
	latencyTotal atomic.Uint64 // nanoseconds
	journalErrs  atomic.Uint64
}

// NewEngine creates an empty book.
func NewEngine(logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		bids:      newSide(true),
		asks:      newSide(false),
		index:     make(map[domain.OrderID]indexEntry),
		retention: defaultTradeRetention,
		logger:    logger.With(slog.String("component", "matching_engine")),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.trades = make([]domain.TradeEvent, e.retention)
	return e
}

// Submit accepts an order, matches it against the opposite side and, for
// LIMIT orders, rests any unfilled remainder. MARKET remainders are
// discarded when the opposite side runs out of liquidity. The order is
// engine-owned from this call until it fully fills or is cancelled.
func (e *Engine) Submit(o *domain.Order) error {
	if err := validate(o); err != nil {
		return err
	}

	e.mu.Lock()
	start := time.Now()

	if o.Type == domain.OrderTypeMarket {
		e.matchAgainst(o, e.opposite(o.Side))
	} else {
		e.matchAgainst(o, e.opposite(o.Side))
		if o.Quantity > 0 {
			e.sameSide(o.Side).add(o)
			e.index[o.ID] = indexEntry{price: o.Price, side: o.Side}
		}
	}

	elapsed := time.Since(start)
	e.mu.Unlock()

	e.latencyTotal.Add(uint64(elapsed.Nanoseconds()))
	e.processed.Add(1)
	if e.observeLatency != nil {
		e.observeLatency(elapsed)
	}
	return nil
}

// Cancel removes a resting order by id. It returns false when the id is
// unknown, already filled, or already cancelled.
func (e *Engine) Cancel(id domain.OrderID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.index[id]
	if !ok {
		return false
	}
	removed := e.sameSide(entry.side).remove(id, entry.price)
	if !removed {
		// Index and book disagree: fatal when debugging, best-effort
		// cleanup in release.
		if e.debug {
			panic(fmt.Sprintf("book: index entry for order %d not found at price %d on %s", id, entry.price, entry.side))
		}
		if e.audit != nil {
			e.audit.Record("matching_engine",
				fmt.Sprintf("index entry for order %d missing at price %d on %s", id, entry.price, entry.side))
		}
		e.logger.Warn("order index inconsistent, dropping entry",
			slog.Uint64("order_id", uint64(id)),
			slog.Uint64("price", entry.price),
		)
		delete(e.index, id)
		return false
	}
	delete(e.index, id)
	return true
}

// TopOfBook returns the best bid and ask prices in ticks. 0 denotes an
// empty side.
func (e *Engine) TopOfBook() (bestBid, bestAsk uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bids.bestPrice(), e.asks.bestPrice()
}

// Quote returns the best prices together with the aggregate resting
// quantities at those prices.
func (e *Engine) Quote() (bestBid, bidQty, bestAsk, askQty uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bids.bestPrice(), e.bids.bestQuantity(), e.asks.bestPrice(), e.asks.bestQuantity()
}

// Depth returns the number of populated price levels per side.
func (e *Engine) Depth() (bidLevels, askLevels int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bids.depth(), e.asks.depth()
}

// Liquidity returns the total resting quantity per side. Used by risk
// position checks; not part of the matching path.
func (e *Engine) Liquidity() (bidQty, askQty uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bids.totalQuantity(), e.asks.totalQuantity()
}

// TradeEvents returns a chronological copy of the retained trade events.
func (e *Engine) TradeEvents() []domain.TradeEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.TradeEvent, 0, e.tradeCount)
	start := e.tradeNext - e.tradeCount
	for i := 0; i < e.tradeCount; i++ {
		out = append(out, e.trades[(start+i+len(e.trades))%len(e.trades)])
	}
	return out
}

// Metrics returns the engine counters. Reads are lock-free.
func (e *Engine) Metrics() EngineMetrics {
	processed := e.processed.Load()
	m := EngineMetrics{
		ProcessedOrders: processed,
		MatchedTrades:   e.matched.Load(),
	}
	if processed > 0 {
		m.AvgLatencyNanos = float64(e.latencyTotal.Load()) / float64(processed)
	}
	return m
}

// JournalErrors returns the count of failed journal appends.
func (e *Engine) JournalErrors() uint64 {
	return e.journalErrs.Load()
}

func validate(o *domain.Order) error {
	switch {
	case o == nil:
		return fmt.Errorf("book: nil order: %w", domain.ErrInvalidOrder)
	case o.Quantity == 0:
		return fmt.Errorf("book: order %d has zero quantity: %w", o.ID, domain.ErrInvalidOrder)
	case o.Type != domain.OrderTypeLimit && o.Type != domain.OrderTypeMarket:
		return fmt.Errorf("book: order %d has unknown type %d: %w", o.ID, o.Type, domain.ErrInvalidOrder)
	case o.Type == domain.OrderTypeLimit && o.Price == 0:
		return fmt.Errorf("book: limit order %d has zero price: %w", o.ID, domain.ErrInvalidOrder)
	case o.Side != domain.SideBuy && o.Side != domain.SideSell:
		return fmt.Errorf("book: order %d has unknown side %d: %w", o.ID, o.Side, domain.ErrInvalidOrder)
	}
	return nil
}

func (e *Engine) sameSide(s domain.Side) *side {
	if s == domain.SideBuy {
		return e.bids
	}
	return e.asks
}

func (e *Engine) opposite(s domain.Side) *side {
	if s == domain.SideBuy {
		return e.asks
	}
	return e.bids
}

// matchAgainst walks the opposite side while the incoming order is
// marketable, producing one trade per take at the resting order's price.
// Caller holds the engine lock.
func (e *Engine) matchAgainst(incoming *domain.Order, opp *side) {
	for incoming.Quantity > 0 && !opp.empty() {
		lvl := opp.bestLevel()
		resting := lvl.front()

		if incoming.Type == domain.OrderTypeLimit {
			if incoming.Side == domain.SideBuy && incoming.Price < resting.Price {
				return
			}
			if incoming.Side == domain.SideSell && incoming.Price > resting.Price {
				return
			}
		}

		qty := incoming.Quantity
		if resting.Quantity < qty {
			qty = resting.Quantity
		}

		buyID, sellID := incoming.ID, resting.ID
		if incoming.Side == domain.SideSell {
			buyID, sellID = resting.ID, incoming.ID
		}
		e.emit(domain.TradeEvent{
			BuyOrderID:  buyID,
			SellOrderID: sellID,
			Price:       resting.Price,
			Quantity:    qty,
			Timestamp:   time.Now(),
		})

		incoming.Quantity -= qty
		lvl.reduceFront(qty)
		if resting.Quantity == 0 {
			opp.popBestOrder()
			delete(e.index, resting.ID)
		}
	}
}

// emit records one trade event in the bounded ring and forwards it to the
// journal and handler. Caller holds the engine lock.
func (e *Engine) emit(ev domain.TradeEvent) {
	e.trades[e.tradeNext%len(e.trades)] = ev
	e.tradeNext = (e.tradeNext + 1) % len(e.trades)
	if e.tradeCount < len(e.trades) {
		e.tradeCount++
	}
	e.matched.Add(1)

	if e.journal != nil {
		if err := e.journal.Append(ev); err != nil {
			e.journalErrs.Add(1)
		}
	}
	if e.onTrade != nil {
		e.onTrade(ev)
	}
}
