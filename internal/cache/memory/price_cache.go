// Package memory provides in-process cache adapters used by the sim mode
// and by tests, mirroring the Redis adapters behind the same ports.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

type pricePoint struct {
	price float64
	ts    time.Time
}

// PriceCache is a map-backed domain.PriceCache.
type PriceCache struct {
	mu     sync.RWMutex
	prices map[string]pricePoint
}

// NewPriceCache returns an empty cache.
func NewPriceCache() *PriceCache {
	return &PriceCache{prices: make(map[string]pricePoint)}
}

// SetPrice stores the latest price for a symbol.
func (pc *PriceCache) SetPrice(_ context.Context, symbol string, price float64, ts time.Time) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.prices[symbol] = pricePoint{price: price, ts: ts}
	return nil
}

// GetPrice returns the latest stored price, or domain.ErrNotFound.
func (pc *PriceCache) GetPrice(_ context.Context, symbol string) (float64, time.Time, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	p, ok := pc.prices[symbol]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	return p.price, p.ts, nil
}
