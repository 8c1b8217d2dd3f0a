// Package audit provides an optional telemetry sink for internal
// consistency observations (index/book disagreements, suspected races).
// Sinks are injected at construction time; there is no process-wide
// recorder.
package audit

import (
	"sync"
	"sync/atomic"
	"time"
)

// Entry is one recorded observation.
type Entry struct {
	Component string
	Detail    string
	Timestamp time.Time
}

// Log is a bounded in-memory recorder. When full, new observations are
// dropped and counted rather than evicting history: the earliest
// observations are usually the most diagnostic.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	limit   int
	dropped atomic.Uint64
}

// NewLog creates a recorder retaining at most limit entries.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = 1024
	}
	return &Log{limit: limit}
}

// Record stores one observation, dropping it when the log is full.
func (l *Log) Record(component, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) >= l.limit {
		l.dropped.Add(1)
		return
	}
	l.entries = append(l.entries, Entry{
		Component: component,
		Detail:    detail,
		Timestamp: time.Now(),
	})
}

// Entries returns a copy of the recorded observations.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Dropped returns the number of observations discarded after the log
// filled.
func (l *Log) Dropped() uint64 {
	return l.dropped.Load()
}

// Nop is a sink that discards everything. Production builds wire this (or
// nothing at all).
type Nop struct{}

// Record implements the sink interface and does nothing.
func (Nop) Record(string, string) {}
