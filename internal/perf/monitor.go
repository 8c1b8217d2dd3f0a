// Package perf provides lightweight runtime telemetry: an event-rate
// monitor, a latency histogram, and optional Prometheus export. Nothing in
// this package formats for humans; consumers render the structured
// snapshots.
package perf

import (
	"sync"
	"sync/atomic"
	"time"
)

// Monitor counts events between a Start/Stop bracket and reports the
// observed rate. RecordEvent is safe to call from any goroutine and is a
// no-op while the monitor is stopped.
type Monitor struct {
	mu      sync.Mutex
	start   time.Time
	end     time.Time
	running atomic.Bool
	events  atomic.Uint64
}

// NewMonitor returns a stopped monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Start resets the counter and opens the measurement bracket.
func (m *Monitor) Start() {
	m.mu.Lock()
	m.start = time.Now()
	m.end = time.Time{}
	m.mu.Unlock()
	m.events.Store(0)
	m.running.Store(true)
}

// Stop closes the measurement bracket.
func (m *Monitor) Stop() {
	if !m.running.CompareAndSwap(true, false) {
		return
	}
	m.mu.Lock()
	m.end = time.Now()
	m.mu.Unlock()
}

// RecordEvent increments the event counter while running.
func (m *Monitor) RecordEvent() {
	if m.running.Load() {
		m.events.Add(1)
	}
}

// Events returns the number of recorded events.
func (m *Monitor) Events() uint64 {
	return m.events.Load()
}

// EventsPerSecond reports the event rate over the elapsed bracket. While
// running the bracket extends to now; once stopped it is fixed at the stop
// time. A zero elapsed duration reports 0.
func (m *Monitor) EventsPerSecond() float64 {
	m.mu.Lock()
	start, end := m.start, m.end
	m.mu.Unlock()

	if start.IsZero() {
		return 0
	}
	if m.running.Load() || end.IsZero() {
		end = time.Now()
	}
	elapsed := end.Sub(start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(m.events.Load()) / elapsed
}
