package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyFillBuildsVWAP(t *testing.T) {
	p := &Position{Symbol: "BTC"}
	assert.True(t, p.Flat())

	p.ApplyFill(SideBuy, 10000, 10)
	p.ApplyFill(SideBuy, 10100, 10)

	assert.Equal(t, int64(20), p.Quantity)
	assert.InDelta(t, 10050, p.AvgPrice, 1e-9)
	assert.Zero(t, p.RealizedPnL)
	assert.InDelta(t, 20*(10200-10050.0), p.UnrealizedPnL(10200), 1e-9)
}

func TestApplyFillRealizesOnReduce(t *testing.T) {
	p := &Position{Symbol: "BTC"}
	p.ApplyFill(SideBuy, 10000, 10)
	p.ApplyFill(SideSell, 10100, 4)

	assert.Equal(t, int64(6), p.Quantity)
	assert.InDelta(t, 10000, p.AvgPrice, 1e-9, "average unchanged on reduce")
	assert.InDelta(t, 400, p.RealizedPnL, 1e-9)

	p.ApplyFill(SideSell, 9900, 6)
	assert.True(t, p.Flat())
	assert.Zero(t, p.AvgPrice)
	assert.InDelta(t, 400-600, p.RealizedPnL, 1e-9)
	assert.Zero(t, p.UnrealizedPnL(12000))
}

func TestApplyFillFlipsThroughFlat(t *testing.T) {
	p := &Position{Symbol: "BTC"}
	p.ApplyFill(SideBuy, 10000, 5)
	p.ApplyFill(SideSell, 10200, 8)

	assert.Equal(t, int64(-3), p.Quantity)
	assert.InDelta(t, 10200, p.AvgPrice, 1e-9, "remainder opens at the fill price")
	assert.InDelta(t, 1000, p.RealizedPnL, 1e-9)

	// Short position gains as price falls.
	assert.InDelta(t, (10200-10100.0)*3, p.UnrealizedPnL(10100), 1e-9)
}

func TestTickScaleConversions(t *testing.T) {
	ts := DefaultTickScale

	assert.InDelta(t, 101.0, ts.ToFloat(10100), 1e-9)
	assert.Equal(t, uint64(10100), ts.ToTicks(101.0))
	assert.Equal(t, uint64(10100), ts.ToTicks(100.999999))
	assert.Zero(t, ts.ToTicks(-5))
	assert.Zero(t, ts.ToTicks(0))
}

func TestOrderIDAllocatorMonotonic(t *testing.T) {
	a := NewOrderIDAllocator()
	assert.Equal(t, OrderID(1), a.Next())
	assert.Equal(t, OrderID(2), a.Next())
	assert.Equal(t, OrderID(3), a.Next())
}

func TestSideAndTypeStrings(t *testing.T) {
	assert.Equal(t, "buy", SideBuy.String())
	assert.Equal(t, "sell", SideSell.String())
	assert.Equal(t, SideSell, SideBuy.Opposite())
	assert.Equal(t, "LIMIT", OrderTypeLimit.String())
	assert.Equal(t, "MARKET", OrderTypeMarket.String())
	assert.Equal(t, "TRADE", UpdateTrade.String())
	assert.Equal(t, "BUY", SignalBuy.String())
	assert.True(t, SignalSell.Actionable())
	assert.False(t, SignalHold.Actionable())
}

func TestTradeEventNotionalSaturates(t *testing.T) {
	ev := TradeEvent{Price: ^uint64(0), Quantity: 3}
	assert.Equal(t, ^uint64(0), ev.Notional())
	assert.Equal(t, uint64(50000), TradeEvent{Price: 10000, Quantity: 5}.Notional())
}
