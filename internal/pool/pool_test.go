package pool

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPoolRunsAllTasks(t *testing.T) {
	p := New(4, 64, testLogger())
	var count atomic.Int64

	for i := 0; i < 100; i++ {
		require.NoError(t, p.Submit(context.Background(), func() { count.Add(1) }))
	}
	p.Shutdown()

	assert.Equal(t, int64(100), count.Load(), "shutdown drains queued tasks")
}

func TestSubmitAfterShutdown(t *testing.T) {
	p := New(1, 1, testLogger())
	p.Shutdown()
	p.Shutdown() // idempotent

	err := p.Submit(context.Background(), func() {})
	assert.ErrorIs(t, err, domain.ErrClosed)
	assert.ErrorIs(t, p.TrySubmit(func() {}), domain.ErrClosed)
}

func TestTrySubmitFullQueue(t *testing.T) {
	p := New(1, 1, testLogger())
	defer p.Shutdown()

	block := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func() { <-block }))

	// Fill the single queue slot, then overflow it.
	var err error
	for i := 0; i < 2; i++ {
		err = p.TrySubmit(func() {})
		if err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, domain.ErrQueueFull)
	close(block)
}

func TestSubmitHonorsContext(t *testing.T) {
	p := New(1, 1, testLogger())
	defer p.Shutdown()

	block := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func() { <-block }))
	require.NoError(t, p.Submit(context.Background(), func() {})) // fills the buffer

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(block)
}

func TestPanicIsolated(t *testing.T) {
	p := New(2, 8, testLogger())
	var count atomic.Int64

	require.NoError(t, p.Submit(context.Background(), func() { panic("boom") }))
	require.NoError(t, p.Submit(context.Background(), func() { count.Add(1) }))
	p.Shutdown()

	assert.Equal(t, int64(1), count.Load())
	assert.Equal(t, uint64(1), p.Panics())
}
