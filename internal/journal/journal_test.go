package journal

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAppendAndReplay(t *testing.T) {
	j, err := Open(t.TempDir(), testLogger())
	require.NoError(t, err)
	defer j.Close()

	events := []domain.TradeEvent{
		{BuyOrderID: 1, SellOrderID: 2, Price: 10000, Quantity: 5, Timestamp: time.Unix(0, 1111)},
		{BuyOrderID: 3, SellOrderID: 2, Price: 10001, Quantity: 7, Timestamp: time.Unix(0, 2222)},
	}
	for _, ev := range events {
		require.NoError(t, j.Append(ev))
	}
	assert.Equal(t, uint64(2), j.Len())

	var replayed []domain.TradeEvent
	require.NoError(t, j.Replay(func(ev domain.TradeEvent) error {
		replayed = append(replayed, ev)
		return nil
	}))
	require.Len(t, replayed, 2)
	assert.Equal(t, events[0].BuyOrderID, replayed[0].BuyOrderID)
	assert.Equal(t, events[1].Price, replayed[1].Price)
	assert.Equal(t, events[1].Timestamp.UnixNano(), replayed[1].Timestamp.UnixNano())
}

func TestSequenceResumesAfterReopen(t *testing.T) {
	dir := t.TempDir()

	j, err := Open(dir, testLogger())
	require.NoError(t, err)
	require.NoError(t, j.Append(domain.TradeEvent{BuyOrderID: 1, SellOrderID: 2, Price: 1, Quantity: 1, Timestamp: time.Now()}))
	require.NoError(t, j.Close())

	j2, err := Open(dir, testLogger())
	require.NoError(t, err)
	defer j2.Close()
	assert.Equal(t, uint64(1), j2.Len())

	require.NoError(t, j2.Append(domain.TradeEvent{BuyOrderID: 3, SellOrderID: 4, Price: 2, Quantity: 2, Timestamp: time.Now()}))
	assert.Equal(t, uint64(2), j2.Len())
}

func TestDecodeRejectsShortRecords(t *testing.T) {
	_, err := decode([]byte{1, 2, 3})
	assert.Error(t, err)
}
