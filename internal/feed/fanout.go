// Package feed delivers external market-data updates to registered
// consumers and hosts the update sources (synthetic generator, websocket,
// kafka).
package feed

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/alanyoungcy/matchbook/internal/domain"
	"github.com/alanyoungcy/matchbook/internal/pool"
)

// Subscriber consumes market updates. OnUpdate is invoked in per-feed
// sequence order; a subscriber that blocks stalls only its own delivery
// when the fan-out runs on a worker surface, and the whole feed when
// delivery is synchronous.
type Subscriber interface {
	Name() string
	OnUpdate(u domain.MarketUpdate)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc struct {
	SubscriberName string
	Fn             func(domain.MarketUpdate)
}

// Name returns the subscriber's display name.
func (s SubscriberFunc) Name() string { return s.SubscriberName }

// OnUpdate invokes the wrapped function.
func (s SubscriberFunc) OnUpdate(u domain.MarketUpdate) { s.Fn(u) }

// mailbox is one subscriber's FIFO of pending updates. At most one drain
// task per mailbox is scheduled on the worker surface at a time, which
// preserves per-subscriber ordering on a shared pool.
type mailbox struct {
	sub       Subscriber
	mu        sync.Mutex
	queue     []domain.MarketUpdate
	scheduled bool
}

// Fanout delivers every published update to every subscriber in
// registration order. Updates are stamped with a strictly monotonic
// sequence number. The fan-out never drops updates; backpressure is the
// subscriber's problem.
type Fanout struct {
	mu     sync.RWMutex
	boxes  []*mailbox
	closed bool

	workers *pool.Pool // nil means synchronous delivery
	logger  *slog.Logger

	seq       atomic.Uint64
	delivered atomic.Uint64
	panics    atomic.Uint64
}

// NewFanout creates a fan-out. A nil workers pool selects synchronous
// delivery from the publisher's goroutine.
func NewFanout(workers *pool.Pool, logger *slog.Logger) *Fanout {
	return &Fanout{
		workers: workers,
		logger:  logger.With(slog.String("component", "fanout")),
	}
}

// Subscribe registers a consumer. Delivery order follows registration
// order.
func (f *Fanout) Subscribe(s Subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boxes = append(f.boxes, &mailbox{sub: s})
}

// Publish stamps the update with the next sequence number and delivers it
// to every subscriber. Publishing after Close is a no-op.
func (f *Fanout) Publish(u domain.MarketUpdate) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}

	u.Sequence = f.seq.Add(1)

	for _, box := range f.boxes {
		if f.workers == nil {
			f.deliver(box.sub, u)
			continue
		}
		f.enqueue(box, u)
	}
}

// enqueue appends the update to the subscriber's mailbox and schedules a
// drain task unless one is already pending.
func (f *Fanout) enqueue(box *mailbox, u domain.MarketUpdate) {
	box.mu.Lock()
	box.queue = append(box.queue, u)
	needDrain := !box.scheduled
	box.scheduled = true
	box.mu.Unlock()

	if !needDrain {
		return
	}
	if err := f.workers.Submit(context.Background(), func() { f.drain(box) }); err != nil {
		// Worker surface gone (shutdown); fall back to inline delivery so
		// the update is not lost.
		f.drain(box)
	}
}

// drain delivers the mailbox contents in order until it empties.
func (f *Fanout) drain(box *mailbox) {
	for {
		box.mu.Lock()
		if len(box.queue) == 0 {
			box.scheduled = false
			box.mu.Unlock()
			return
		}
		u := box.queue[0]
		box.queue = box.queue[1:]
		box.mu.Unlock()

		f.deliver(box.sub, u)
	}
}

// deliver invokes one subscriber, isolating panics so a misbehaving
// consumer cannot affect the others.
func (f *Fanout) deliver(s Subscriber, u domain.MarketUpdate) {
	defer func() {
		if r := recover(); r != nil {
			f.panics.Add(1)
			f.logger.Error("subscriber panicked",
				slog.String("subscriber", s.Name()),
				slog.Any("panic", r),
			)
		}
	}()
	s.OnUpdate(u)
	f.delivered.Add(1)
}

// Close stops intake. In-flight mailbox drains finish on the worker
// surface; the owner shuts the pool down afterwards to join them.
func (f *Fanout) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// Sequence returns the last stamped sequence number.
func (f *Fanout) Sequence() uint64 { return f.seq.Load() }

// Delivered returns the count of successful subscriber deliveries.
func (f *Fanout) Delivered() uint64 { return f.delivered.Load() }

// SubscriberPanics returns the count of recovered subscriber panics.
func (f *Fanout) SubscriberPanics() uint64 { return f.panics.Load() }
