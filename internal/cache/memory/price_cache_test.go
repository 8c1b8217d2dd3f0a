package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

func TestPriceCacheRoundTrip(t *testing.T) {
	pc := NewPriceCache()
	ctx := context.Background()

	_, _, err := pc.GetPrice(ctx, "BTC")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	now := time.Now()
	require.NoError(t, pc.SetPrice(ctx, "BTC", 10050, now))

	price, ts, err := pc.GetPrice(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, 10050.0, price)
	assert.Equal(t, now, ts)
}
