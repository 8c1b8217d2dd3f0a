// Package risk implements the stateful pre-trade gate that candidate orders
// pass through before reaching the matching engine.
package risk

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

// Config holds the tunable limits for pre-trade checks. A zero value
// disables the respective check.
type Config struct {
	MaxOrderQuantity    uint64  `toml:"max_order_quantity"`
	MaxNotionalPerOrder uint64  `toml:"max_notional_per_order"` // price * quantity in ticks
	MaxOrdersPerBatch   int     `toml:"max_orders_per_batch"`
	MaxDailyVolume      uint64  `toml:"max_daily_volume"`
	MaxPositionPct      float64 `toml:"max_position_pct"` // fraction of total book liquidity
}

// LiquidityFunc reports the current total resting quantity per book side.
// It backs the MaxPositionPct check; a nil func disables that check.
type LiquidityFunc func() (bidQty, askQty uint64)

// Filter drops orders that violate any configured limit. Accepted orders
// have their quantity added to the cumulative daily volume; rejected orders
// increment a counter. The filter never reports which rule fired to the
// caller — logs carry the detail.
type Filter struct {
	cfg       Config
	liquidity LiquidityFunc
	logger    *slog.Logger

	mu          sync.Mutex
	dailyVolume uint64
	rejected    atomic.Uint64
}

// NewFilter creates a Filter with the given limits. liquidity may be nil.
func NewFilter(cfg Config, liquidity LiquidityFunc, logger *slog.Logger) *Filter {
	return &Filter{
		cfg:       cfg,
		liquidity: liquidity,
		logger:    logger.With(slog.String("component", "risk_filter")),
	}
}

// Apply runs every order in the batch through the configured checks and
// returns the survivors in their original order. Each presented order is
// judged exactly once; callers must not re-present accepted orders.
func (f *Filter) Apply(orders []*domain.Order) []*domain.Order {
	out := make([]*domain.Order, 0, len(orders))

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, o := range orders {
		if !f.acceptLocked(o, len(out)) {
			f.rejected.Add(1)
			continue
		}
		f.dailyVolume += o.Quantity
		out = append(out, o)
	}
	return out
}

// acceptLocked applies all checks to one order. accepted is the number of
// orders already accepted from the current batch.
func (f *Filter) acceptLocked(o *domain.Order, accepted int) bool {
	if o == nil || o.Quantity == 0 {
		return false
	}
	if f.cfg.MaxOrderQuantity != 0 && o.Quantity > f.cfg.MaxOrderQuantity {
		f.logger.Debug("order rejected: quantity limit",
			slog.Uint64("order_id", uint64(o.ID)),
			slog.Uint64("quantity", o.Quantity),
			slog.Uint64("max", f.cfg.MaxOrderQuantity),
		)
		return false
	}
	if f.cfg.MaxNotionalPerOrder != 0 {
		notional, ok := mulNoOverflow(o.Price, o.Quantity)
		if !ok || notional > f.cfg.MaxNotionalPerOrder {
			f.logger.Debug("order rejected: notional limit",
				slog.Uint64("order_id", uint64(o.ID)),
				slog.Uint64("max", f.cfg.MaxNotionalPerOrder),
			)
			return false
		}
	}
	if f.cfg.MaxOrdersPerBatch != 0 && accepted >= f.cfg.MaxOrdersPerBatch {
		f.logger.Debug("order rejected: batch limit",
			slog.Uint64("order_id", uint64(o.ID)),
			slog.Int("max", f.cfg.MaxOrdersPerBatch),
		)
		return false
	}
	if f.cfg.MaxDailyVolume != 0 && f.dailyVolume+o.Quantity > f.cfg.MaxDailyVolume {
		f.logger.Debug("order rejected: daily volume limit",
			slog.Uint64("order_id", uint64(o.ID)),
			slog.Uint64("daily_volume", f.dailyVolume),
			slog.Uint64("max", f.cfg.MaxDailyVolume),
		)
		return false
	}
	if f.cfg.MaxPositionPct > 0 && f.liquidity != nil {
		bidQty, askQty := f.liquidity()
		total := bidQty + askQty
		if total > 0 && float64(o.Quantity) > f.cfg.MaxPositionPct*float64(total) {
			f.logger.Debug("order rejected: position limit",
				slog.Uint64("order_id", uint64(o.ID)),
				slog.Float64("max_pct", f.cfg.MaxPositionPct),
			)
			return false
		}
	}
	return true
}

// Rejected returns the number of orders dropped so far.
func (f *Filter) Rejected() uint64 {
	return f.rejected.Load()
}

// DailyVolume returns the cumulative accepted quantity for the session.
func (f *Filter) DailyVolume() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dailyVolume
}

// ResetDay clears the cumulative volume and the rejected counter at a
// session boundary.
func (f *Filter) ResetDay() {
	f.mu.Lock()
	f.dailyVolume = 0
	f.mu.Unlock()
	f.rejected.Store(0)
}

// mulNoOverflow multiplies two uint64s, reporting false on overflow.
func mulNoOverflow(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > ^uint64(0)/b {
		return 0, false
	}
	return a * b, true
}
