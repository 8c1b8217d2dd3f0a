package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

func TestLevelAggregateQuantity(t *testing.T) {
	lvl := newLevel(10000)
	lvl.append(limit(1, domain.SideSell, 10000, 5))
	lvl.append(limit(2, domain.SideSell, 10000, 7))
	lvl.append(limit(3, domain.SideSell, 10000, 2))
	assert.Equal(t, uint64(14), lvl.totalQty)
	assert.Equal(t, 3, lvl.size())

	lvl.reduceFront(3)
	assert.Equal(t, uint64(11), lvl.totalQty)

	lvl.popFront()
	assert.Equal(t, uint64(9), lvl.totalQty)
	assert.Equal(t, domain.OrderID(2), lvl.front().ID)

	require.True(t, lvl.remove(3))
	assert.Equal(t, uint64(7), lvl.totalQty)
	require.False(t, lvl.remove(3))

	lvl.popFront()
	assert.True(t, lvl.empty())
	assert.Zero(t, lvl.totalQty)
}

func TestSideBestPriceOrdering(t *testing.T) {
	bids := newSide(true)
	asks := newSide(false)

	for _, p := range []uint64{9900, 10000, 9800} {
		bids.add(limit(p, domain.SideBuy, p, 1))
		asks.add(limit(p+1, domain.SideSell, p, 1))
	}

	assert.Equal(t, uint64(10000), bids.bestPrice())
	assert.Equal(t, uint64(9800), asks.bestPrice())
	assert.Equal(t, 3, bids.depth())
	assert.Equal(t, uint64(3), bids.totalQuantity())
}

func TestSideRemoveReclaimsEmptyLevel(t *testing.T) {
	s := newSide(false)
	s.add(limit(1, domain.SideSell, 10000, 5))
	s.add(limit(2, domain.SideSell, 10001, 5))

	require.True(t, s.remove(1, 10000))
	assert.Equal(t, 1, s.depth())
	assert.Equal(t, uint64(10001), s.bestPrice())

	assert.False(t, s.remove(1, 10000))
	assert.False(t, s.remove(2, 10005))
}

func TestSideEmptySentinel(t *testing.T) {
	s := newSide(true)
	assert.True(t, s.empty())
	assert.Zero(t, s.bestPrice())
	assert.Nil(t, s.bestOrder())
	s.popBestOrder() // no-op on empty side
}
