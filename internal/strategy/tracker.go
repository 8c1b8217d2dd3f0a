package strategy

import (
	"math"
	"sync"

	"github.com/alanyoungcy/matchbook/internal/indicator"
)

// Tracker maintains a bounded price history per symbol and exposes the
// statistical helpers strategies rely on. Prices are stored as float64
// ticks; conversion back to integer ticks happens only at the order
// boundary.
type Tracker struct {
	mu        sync.RWMutex
	histories map[string]*indicator.History
	capacity  int
}

// NewTracker creates a Tracker whose per-symbol histories hold at most
// capacity samples.
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = indicator.DefaultCapacity
	}
	return &Tracker{
		histories: make(map[string]*indicator.History),
		capacity:  capacity,
	}
}

// Track records a new price observation for the symbol.
func (t *Tracker) Track(symbol string, price float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.histories[symbol]
	if !ok {
		h = indicator.NewHistory(t.capacity)
		t.histories[symbol] = h
	}
	h.Push(price)
}

// History returns the symbol's history, or nil when no price was tracked.
// The caller must confine use to the goroutine that drives the owning
// strategy.
func (t *Tracker) History(symbol string) *indicator.History {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.histories[symbol]
}

// Len returns the number of samples tracked for the symbol.
func (t *Tracker) Len(symbol string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if h, ok := t.histories[symbol]; ok {
		return h.Len()
	}
	return 0
}

// Mean returns the arithmetic mean of the symbol's history, or 0 when
// empty.
func (t *Tracker) Mean(symbol string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.histories[symbol]
	if !ok || h.Len() == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < h.Len(); i++ {
		sum += h.At(i)
	}
	return sum / float64(h.Len())
}

// Volatility returns the population standard deviation of the symbol's
// history. Fewer than two samples report 0.
func (t *Tracker) Volatility(symbol string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.histories[symbol]
	if !ok || h.Len() < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < h.Len(); i++ {
		sum += h.At(i)
	}
	mean := sum / float64(h.Len())

	var variance float64
	for i := 0; i < h.Len(); i++ {
		d := h.At(i) - mean
		variance += d * d
	}
	variance /= float64(h.Len())
	return math.Sqrt(variance)
}

// Remove drops the symbol's history entirely.
func (t *Tracker) Remove(symbol string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.histories, symbol)
}
