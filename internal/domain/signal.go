package domain

import "time"

// SignalType is a strategy's recommendation for a symbol.
type SignalType uint8

const (
	SignalNone SignalType = iota
	SignalHold
	SignalBuy
	SignalSell
)

// String returns the canonical name of the signal type.
func (t SignalType) String() string {
	switch t {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	case SignalHold:
		return "HOLD"
	default:
		return "NONE"
	}
}

// Actionable reports whether the signal should be translated into an order.
func (t SignalType) Actionable() bool {
	return t == SignalBuy || t == SignalSell
}

// Signal is emitted by a strategy in response to a market update. Price and
// Quantity describe the order the strategy wants; Confidence is in [0,1].
// Reason is opaque diagnostic text capturing the deciding indicator values
// and is not machine-parseable.
type Signal struct {
	ID         string // UUID for dedup
	Source     string // strategy name
	Symbol     string
	Type       SignalType
	Price      uint64 // target price in ticks
	Quantity   uint64
	Confidence float64
	Reason     string
	CreatedAt  time.Time
}
