// Package strategy converts market updates into trade signals and signals
// into executable orders. Strategies are a capability set behind a small
// interface, not a class hierarchy; each instance owns its price history
// and position state and never shares mutable state with another.
package strategy

import (
	"github.com/alanyoungcy/matchbook/internal/domain"
)

// Strategy is the contract every trading strategy implements. OnUpdate may
// return at most one signal per update; OnTrade is bookkeeping only and
// must not emit orders.
type Strategy interface {
	Name() string
	OnUpdate(u domain.MarketUpdate) []domain.Signal
	OnTrade(ev domain.TradeEvent)
	Close() error
}

// Config holds the tunable parameters shared by the built-in strategies.
type Config struct {
	MomentumThreshold float64 // minimum composite momentum to fire
	RSIOversold       float64
	RSIOverbought     float64
	ShortPeriod       int
	LongPeriod        int
	RSIPeriod         int
	PositionSize      uint64  // fixed quantity per signal
	StopLossPct       float64 // e.g. 0.02 = exit 2% under entry
	TakeProfitPct     float64
	StdDevThreshold   float64 // mean reversion band width in sigmas
	HistoryCapacity   int
}

// Defaults returns a conservative parameter set.
func Defaults() Config {
	return Config{
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
	}
}
