package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

// band builds an alternating series around 10000 with the given amplitude.
func band(n int, amplitude uint64) []uint64 {
	prices := make([]uint64, n)
	for i := range prices {
		if i%2 == 0 {
			prices[i] = 10000 + amplitude
		} else {
			prices[i] = 10000 - amplitude
		}
	}
	return prices
}

func TestMeanReversionBuysBelowBand(t *testing.T) {
	mr := NewMeanReversion(Defaults(), testLogger())
	feed(mr, "ETH", band(30, 50))

	sigs := mr.OnUpdate(tradeUpdate("ETH", 9800))
	require.Len(t, sigs, 1)
	assert.Equal(t, domain.SignalBuy, sigs[0].Type)
	assert.Equal(t, "mean_reversion", sigs[0].Source)
	assert.NotEmpty(t, sigs[0].Reason)
	assert.Positive(t, sigs[0].Confidence)
}

func TestMeanReversionSellsAboveBandWhenInPosition(t *testing.T) {
	mr := NewMeanReversion(Defaults(), testLogger())
	feed(mr, "ETH", band(30, 50))

	require.Equal(t, domain.SignalBuy, mr.OnUpdate(tradeUpdate("ETH", 9800))[0].Type)

	sigs := mr.OnUpdate(tradeUpdate("ETH", 10250))
	require.NotEmpty(t, sigs)
	assert.Equal(t, domain.SignalSell, sigs[0].Type)
}

func TestMeanReversionNoSellWhenFlat(t *testing.T) {
	mr := NewMeanReversion(Defaults(), testLogger())
	feed(mr, "ETH", band(30, 50))

	// Above the band but flat: nothing to sell.
	sigs := mr.OnUpdate(tradeUpdate("ETH", 10250))
	assert.Empty(t, actionable(sigs))
}

func TestMeanReversionHoldsInsideBand(t *testing.T) {
	mr := NewMeanReversion(Defaults(), testLogger())
	feed(mr, "ETH", band(30, 50))

	assert.Empty(t, actionable(mr.OnUpdate(tradeUpdate("ETH", 10010))))
}

func TestMeanReversionNeedsVolatility(t *testing.T) {
	mr := NewMeanReversion(Defaults(), testLogger())
	// A constant tape has zero volatility and must stay silent.
	sigs := feed(mr, "ETH", []uint64{10000, 10000, 10000, 10000})
	assert.Empty(t, sigs)
}

func TestTrackerStatistics(t *testing.T) {
	tr := NewTracker(100)
	for _, p := range []float64{9950, 10050, 9950, 10050} {
		tr.Track("BTC", p)
	}
	assert.Equal(t, 4, tr.Len("BTC"))
	assert.InDelta(t, 10000, tr.Mean("BTC"), 1e-9)
	assert.InDelta(t, 50, tr.Volatility("BTC"), 1e-9)

	tr.Remove("BTC")
	assert.Zero(t, tr.Len("BTC"))
	assert.Zero(t, tr.Mean("BTC"))
	assert.Nil(t, tr.History("BTC"))
}

func TestRegistryOrderAndLookup(t *testing.T) {
	r := NewRegistry()
	mom := NewMomentum(Defaults(), testLogger())
	rev := NewMeanReversion(Defaults(), testLogger())
	r.Register(mom.Name(), mom)
	r.Register(rev.Name(), rev)

	got, err := r.Get("momentum")
	require.NoError(t, err)
	assert.Equal(t, "momentum", got.Name())

	_, err = r.Get("missing")
	assert.Error(t, err)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "momentum", all[0].Name(), "delivery follows registration order")
	assert.Equal(t, []string{"mean_reversion", "momentum"}, r.List())
	assert.NoError(t, r.Close())
}
