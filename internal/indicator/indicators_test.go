package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func histOf(values ...float64) *History {
	h := NewHistory(len(values) + 8)
	for _, v := range values {
		h.Push(v)
	}
	return h
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		h.Push(v)
	}
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []float64{3, 4, 5}, h.Values())
	assert.Equal(t, 5.0, h.Last())

	h.Reset()
	assert.Zero(t, h.Len())
	assert.Zero(t, h.Last())
}

func TestSMA(t *testing.T) {
	h := histOf(1, 2, 3, 4, 5)
	assert.Equal(t, 4.0, SMA(h, 3))
	assert.Equal(t, 3.0, SMA(h, 5))
	assert.Zero(t, SMA(h, 6), "insufficient data is neutral")
	assert.Zero(t, SMA(h, 0))
}

func TestRSI(t *testing.T) {
	t.Run("insufficient data returns neutral", func(t *testing.T) {
		assert.Equal(t, 50.0, RSI(histOf(1, 2, 3), 14))
	})

	t.Run("all gains returns 100", func(t *testing.T) {
		h := histOf(1, 2, 3, 4, 5, 6, 7, 8)
		assert.Equal(t, 100.0, RSI(h, 5))
	})

	t.Run("all losses returns 0", func(t *testing.T) {
		h := histOf(8, 7, 6, 5, 4, 3, 2, 1)
		assert.Equal(t, 0.0, RSI(h, 5))
	})

	t.Run("balanced moves sit near 50", func(t *testing.T) {
		h := histOf(10, 11, 10, 11, 10, 11, 10, 11, 10, 11)
		rsi := RSI(h, 8)
		assert.InDelta(t, 50.0, rsi, 10.0)
	})
}

func TestMACD(t *testing.T) {
	t.Run("insufficient data is zero", func(t *testing.T) {
		macd, sig := MACD(histOf(1, 2, 3), 12, 26, 9)
		assert.Zero(t, macd)
		assert.Zero(t, sig)
	})

	t.Run("uptrend yields positive macd", func(t *testing.T) {
		h := NewHistory(64)
		for i := 0; i < 40; i++ {
			h.Push(100 + float64(i))
		}
		macd, sig := MACD(h, 12, 26, 9)
		assert.Positive(t, macd)
		assert.Positive(t, sig)
	})

	t.Run("downtrend yields negative macd", func(t *testing.T) {
		h := NewHistory(64)
		for i := 0; i < 40; i++ {
			h.Push(200 - float64(i))
		}
		macd, _ := MACD(h, 12, 26, 9)
		assert.Negative(t, macd)
	})
}

func TestPercentChange(t *testing.T) {
	h := histOf(100, 105, 110)
	assert.InDelta(t, 10.0, PercentChange(h, 2), 1e-9)
	assert.InDelta(t, 100.0/105*5, PercentChange(h, 1), 1e-9)
	assert.Zero(t, PercentChange(h, 5), "insufficient data")
	assert.Zero(t, PercentChange(histOf(0, 10), 1), "zero base")
}

func TestMomentumScore(t *testing.T) {
	t.Run("bounded in unit interval", func(t *testing.T) {
		h := NewHistory(64)
		for i := 0; i < 40; i++ {
			h.Push(100 + float64(i)*3)
		}
		score := MomentumScore(h, 5, 20)
		assert.Positive(t, score)
		assert.LessOrEqual(t, score, 1.0)
	})

	t.Run("downtrend is negative", func(t *testing.T) {
		h := NewHistory(64)
		for i := 0; i < 40; i++ {
			h.Push(300 - float64(i)*3)
		}
		score := MomentumScore(h, 5, 20)
		assert.Negative(t, score)
		assert.GreaterOrEqual(t, score, -1.0)
	})

	t.Run("insufficient data is neutral", func(t *testing.T) {
		assert.Zero(t, MomentumScore(histOf(1, 2, 3), 5, 20))
	})
}
