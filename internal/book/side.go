package book

import (
	"github.com/tidwall/btree"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

// side holds all resting orders for one half of the book, keyed by price.
// Bids consider the maximum key best, asks the minimum. Levels are created
// on first insert at a price and deleted as soon as they drain.
type side struct {
	levels *btree.Map[uint64, *level]
	isBid  bool
}

func newSide(isBid bool) *side {
	return &side{
		levels: btree.NewMap[uint64, *level](32),
		isBid:  isBid,
	}
}

// add inserts the order into the level at its limit price.
func (s *side) add(o *domain.Order) {
	lvl, ok := s.levels.Get(o.Price)
	if !ok {
		lvl = newLevel(o.Price)
		s.levels.Set(o.Price, lvl)
	}
	lvl.append(o)
}

// bestLevel returns the best-priced level, or nil when the side is empty.
func (s *side) bestLevel() *level {
	if s.isBid {
		if _, lvl, ok := s.levels.Max(); ok {
			return lvl
		}
		return nil
	}
	if _, lvl, ok := s.levels.Min(); ok {
		return lvl
	}
	return nil
}

// bestOrder returns the front order of the best level, or nil.
func (s *side) bestOrder() *domain.Order {
	lvl := s.bestLevel()
	if lvl == nil {
		return nil
	}
	return lvl.front()
}

// popBestOrder removes the front order of the best level and deletes the
// level if it drains.
func (s *side) popBestOrder() {
	lvl := s.bestLevel()
	if lvl == nil {
		return
	}
	lvl.popFront()
	if lvl.empty() {
		s.levels.Delete(lvl.price)
	}
}

// remove deletes the order with the given id from the level at price,
// reclaiming the level if it empties. Returns false when no such order rests
// there.
func (s *side) remove(id domain.OrderID, price uint64) bool {
	lvl, ok := s.levels.Get(price)
	if !ok {
		return false
	}
	removed := lvl.remove(id)
	if removed && lvl.empty() {
		s.levels.Delete(price)
	}
	return removed
}

// bestPrice returns the best price on this side, or 0 when empty. Zero is a
// sentinel; callers must check empty() to disambiguate.
func (s *side) bestPrice() uint64 {
	lvl := s.bestLevel()
	if lvl == nil {
		return 0
	}
	return lvl.price
}

// bestQuantity returns the aggregate resting quantity at the best level.
func (s *side) bestQuantity() uint64 {
	lvl := s.bestLevel()
	if lvl == nil {
		return 0
	}
	return lvl.totalQty
}

func (s *side) empty() bool {
	return s.levels.Len() == 0
}

// depth returns the number of populated price levels.
func (s *side) depth() int {
	return s.levels.Len()
}

// totalQuantity sums resting quantity across all levels. O(levels); used by
// the risk filter's liquidity snapshot, not by the matching path.
func (s *side) totalQuantity() uint64 {
	var total uint64
	s.levels.Scan(func(_ uint64, lvl *level) bool {
		total += lvl.totalQty
		return true
	})
	return total
}
