package risk

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func order(id uint64, price, qty uint64) *domain.Order {
	return domain.NewOrder(domain.OrderID(id), domain.SideBuy, domain.OrderTypeLimit, price, qty)
}

func TestQuantityLimit(t *testing.T) {
	f := NewFilter(Config{MaxOrderQuantity: 100}, nil, testLogger())

	out := f.Apply([]*domain.Order{order(1, 10000, 200)})
	assert.Empty(t, out)
	assert.Equal(t, uint64(1), f.Rejected())

	out = f.Apply([]*domain.Order{order(2, 10000, 100)})
	assert.Len(t, out, 1)
	assert.Equal(t, uint64(1), f.Rejected())
}

func TestNotionalLimit(t *testing.T) {
	f := NewFilter(Config{MaxNotionalPerOrder: 1_000_000}, nil, testLogger())

	accepted := f.Apply([]*domain.Order{
		order(1, 10000, 100),  // notional exactly at the cap
		order(2, 10000, 101),  // above
		order(3, ^uint64(0), 2), // would overflow uint64
	})
	require.Len(t, accepted, 1)
	assert.Equal(t, domain.OrderID(1), accepted[0].ID)
	assert.Equal(t, uint64(2), f.Rejected())
}

func TestBatchLimit(t *testing.T) {
	f := NewFilter(Config{MaxOrdersPerBatch: 2}, nil, testLogger())

	accepted := f.Apply([]*domain.Order{
		order(1, 1, 1), order(2, 1, 1), order(3, 1, 1), order(4, 1, 1),
	})
	assert.Len(t, accepted, 2)
	assert.Equal(t, uint64(2), f.Rejected())

	// A new batch starts a fresh per-batch count.
	accepted = f.Apply([]*domain.Order{order(5, 1, 1)})
	assert.Len(t, accepted, 1)
}

func TestDailyVolumeAccumulates(t *testing.T) {
	f := NewFilter(Config{MaxDailyVolume: 100}, nil, testLogger())

	assert.Len(t, f.Apply([]*domain.Order{order(1, 1, 60)}), 1)
	assert.Len(t, f.Apply([]*domain.Order{order(2, 1, 60)}), 0, "would breach the daily cap")
	assert.Len(t, f.Apply([]*domain.Order{order(3, 1, 40)}), 1)
	assert.Equal(t, uint64(100), f.DailyVolume())
	assert.Equal(t, uint64(1), f.Rejected())

	f.ResetDay()
	assert.Zero(t, f.DailyVolume())
	assert.Zero(t, f.Rejected())
	assert.Len(t, f.Apply([]*domain.Order{order(4, 1, 60)}), 1)
}

func TestPositionPctAgainstLiquidity(t *testing.T) {
	liquidity := func() (uint64, uint64) { return 600, 400 }
	f := NewFilter(Config{MaxPositionPct: 0.05}, liquidity, testLogger())

	accepted := f.Apply([]*domain.Order{
		order(1, 1, 50), // exactly 5% of 1000
		order(2, 1, 51),
	})
	require.Len(t, accepted, 1)
	assert.Equal(t, domain.OrderID(1), accepted[0].ID)
}

func TestZeroQuantityAlwaysRejected(t *testing.T) {
	f := NewFilter(Config{}, nil, testLogger())
	out := f.Apply([]*domain.Order{order(1, 10, 0), nil})
	assert.Empty(t, out)
	assert.Equal(t, uint64(2), f.Rejected())
}

func TestDisabledChecksPassEverything(t *testing.T) {
	f := NewFilter(Config{}, nil, testLogger())
	batch := []*domain.Order{order(1, 1, 1 << 40), order(2, 1 << 40, 1 << 20)}
	assert.Len(t, f.Apply(batch), 2)
	assert.Zero(t, f.Rejected())
}

func TestFilterIdempotentOnAcceptedSet(t *testing.T) {
	cfg := Config{MaxOrderQuantity: 100, MaxNotionalPerOrder: 10_000_000}
	batch := []*domain.Order{
		order(1, 10000, 50),
		order(2, 10000, 500),
		order(3, 10000, 99),
	}

	first := NewFilter(cfg, nil, testLogger()).Apply(batch)
	second := NewFilter(cfg, nil, testLogger()).Apply(first)
	assert.Equal(t, first, second)
}
