package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/matchbook/internal/domain"
	"github.com/alanyoungcy/matchbook/internal/risk"
)

// scripted emits a fixed signal on every update.
type scripted struct {
	name string
	sig  *domain.Signal
	seen []domain.TradeEvent
}

func (s *scripted) Name() string { return s.name }

func (s *scripted) OnUpdate(domain.MarketUpdate) []domain.Signal {
	if s.sig == nil {
		return nil
	}
	out := *s.sig
	out.Source = s.name
	return []domain.Signal{out}
}

func (s *scripted) OnTrade(ev domain.TradeEvent) { s.seen = append(s.seen, ev) }

func (s *scripted) Close() error { return nil }

// captureSink records submitted orders.
type captureSink struct {
	orders []*domain.Order
	err    error
}

func (c *captureSink) Submit(o *domain.Order) error {
	if c.err != nil {
		return c.err
	}
	c.orders = append(c.orders, o)
	return nil
}

func newTestEngine(t *testing.T, sig *domain.Signal, riskCfg risk.Config) (*Engine, *captureSink, *scripted, *risk.Filter) {
	t.Helper()
	reg := NewRegistry()
	s := &scripted{name: "scripted", sig: sig}
	reg.Register(s.name, s)
	filter := risk.NewFilter(riskCfg, nil, testLogger())
	sink := &captureSink{}
	e := NewEngine(reg, filter, sink, domain.NewOrderIDAllocator(), nil, testLogger())
	return e, sink, s, filter
}

func buySignal(qty uint64) *domain.Signal {
	return &domain.Signal{
		Symbol:    "BTC",
		Type:      domain.SignalBuy,
		Price:     10000,
		Quantity:  qty,
		CreatedAt: time.Now(),
	}
}

func TestEngineTranslatesSignalsToOrders(t *testing.T) {
	e, sink, _, _ := newTestEngine(t, buySignal(50), risk.Config{})

	e.OnUpdate(tradeUpdate("BTC", 10000))

	require.Len(t, sink.orders, 1)
	o := sink.orders[0]
	assert.Equal(t, domain.OrderID(1), o.ID, "ids are allocated monotonically")
	assert.Equal(t, domain.SideBuy, o.Side)
	assert.Equal(t, domain.OrderTypeLimit, o.Type)
	assert.Equal(t, uint64(10000), o.Price)
	assert.Equal(t, uint64(50), o.Quantity)

	stats := e.Stats()
	assert.Equal(t, uint64(1), stats.SignalsEmitted)
	assert.Equal(t, uint64(1), stats.OrdersSubmitted)
}

func TestEngineDropsRiskRejectedOrders(t *testing.T) {
	e, sink, _, filter := newTestEngine(t, buySignal(200), risk.Config{MaxOrderQuantity: 100})

	e.OnUpdate(tradeUpdate("BTC", 10000))

	assert.Empty(t, sink.orders, "the matching engine never sees the order")
	assert.Equal(t, uint64(1), filter.Rejected())
	assert.Zero(t, e.Stats().OrdersSubmitted)
}

func TestEngineIgnoresNonActionableSignals(t *testing.T) {
	hold := &domain.Signal{Symbol: "BTC", Type: domain.SignalHold, Price: 10000, Quantity: 50}
	e, sink, _, _ := newTestEngine(t, hold, risk.Config{})

	e.OnUpdate(tradeUpdate("BTC", 10000))

	assert.Empty(t, sink.orders)
	assert.Equal(t, uint64(1), e.Stats().SignalsEmitted)
}

func TestEngineTracksAdvisoryPositions(t *testing.T) {
	e, sink, s, _ := newTestEngine(t, buySignal(50), risk.Config{})

	e.OnUpdate(tradeUpdate("BTC", 10000))
	require.Len(t, sink.orders, 1)
	id := sink.orders[0].ID

	ev := domain.TradeEvent{
		BuyOrderID:  id,
		SellOrderID: 999,
		Price:       10000,
		Quantity:    50,
		Timestamp:   time.Now(),
	}
	e.OnTradeEvent(ev)

	pos := e.Position("scripted", "BTC")
	assert.Equal(t, int64(50), pos.Quantity)
	assert.InDelta(t, 10000, pos.AvgPrice, 1e-9)

	require.Len(t, s.seen, 1, "trade events reach strategy bookkeeping")

	// A later unrelated event leaves the position untouched.
	e.OnTradeEvent(domain.TradeEvent{BuyOrderID: 123, SellOrderID: 456, Price: 1, Quantity: 1})
	assert.Equal(t, int64(50), e.Position("scripted", "BTC").Quantity)
}

func TestEnginePartialFillsAccumulate(t *testing.T) {
	e, sink, _, _ := newTestEngine(t, buySignal(50), risk.Config{})
	e.OnUpdate(tradeUpdate("BTC", 10000))
	id := sink.orders[0].ID

	e.OnTradeEvent(domain.TradeEvent{BuyOrderID: id, SellOrderID: 7, Price: 10000, Quantity: 20})
	e.OnTradeEvent(domain.TradeEvent{BuyOrderID: id, SellOrderID: 8, Price: 10010, Quantity: 30})

	pos := e.Position("scripted", "BTC")
	assert.Equal(t, int64(50), pos.Quantity)
	assert.InDelta(t, 10006, pos.AvgPrice, 1e-9)

	// Fully filled orders are forgotten; further fills for the id are
	// ignored.
	e.OnTradeEvent(domain.TradeEvent{BuyOrderID: id, SellOrderID: 9, Price: 10020, Quantity: 10})
	assert.Equal(t, int64(50), e.Position("scripted", "BTC").Quantity)
}

func TestEngineSubmitErrorCounted(t *testing.T) {
	e, sink, _, _ := newTestEngine(t, buySignal(50), risk.Config{})
	sink.err = domain.ErrInvalidOrder

	e.OnUpdate(tradeUpdate("BTC", 10000))

	assert.Zero(t, e.Stats().OrdersSubmitted)
	assert.Equal(t, uint64(1), e.Stats().SubmitErrors)
	assert.Zero(t, e.Position("scripted", "BTC").Quantity, "failed submits leave no open ref")
}
