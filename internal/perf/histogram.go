package perf

import (
	"sync/atomic"
	"time"
)

// latencyBuckets are the upper bounds, in nanoseconds, of the histogram
// buckets. Log-spaced from 100ns to 100ms; the final implicit bucket is
// unbounded.
var latencyBuckets = []uint64{
	100, 250, 500,
	1_000, 2_500, 5_000,
	10_000, 25_000, 50_000,
	100_000, 250_000, 500_000,
	1_000_000, 10_000_000, 100_000_000,
}

const numLatencyBuckets = 15

// LatencyHistogram accumulates duration observations into fixed log-spaced
// buckets. All methods are safe for concurrent use.
type LatencyHistogram struct {
	counts [numLatencyBuckets + 1]atomic.Uint64
	total  atomic.Uint64 // nanoseconds
	count  atomic.Uint64
}

// NewLatencyHistogram returns an empty histogram.
func NewLatencyHistogram() *LatencyHistogram {
	return &LatencyHistogram{}
}

// Observe records one duration.
func (h *LatencyHistogram) Observe(d time.Duration) {
	ns := uint64(d.Nanoseconds())
	h.total.Add(ns)
	h.count.Add(1)
	for i, ub := range latencyBuckets {
		if ns <= ub {
			h.counts[i].Add(1)
			return
		}
	}
	h.counts[len(latencyBuckets)].Add(1)
}

// HistogramSnapshot is an immutable view of the histogram state.
type HistogramSnapshot struct {
	Bounds []uint64 // bucket upper bounds in ns; final bucket unbounded
	Counts []uint64
	Count  uint64
	Mean   float64 // ns
}

// Snapshot copies the current counts.
func (h *LatencyHistogram) Snapshot() HistogramSnapshot {
	snap := HistogramSnapshot{
		Bounds: latencyBuckets,
		Counts: make([]uint64, len(latencyBuckets)+1),
		Count:  h.count.Load(),
	}
	for i := range h.counts {
		snap.Counts[i] = h.counts[i].Load()
	}
	if snap.Count > 0 {
		snap.Mean = float64(h.total.Load()) / float64(snap.Count)
	}
	return snap
}

// Quantile returns an upper-bound estimate, in nanoseconds, for the given
// quantile q in [0,1]. The unbounded overflow bucket reports the largest
// finite bound.
func (s HistogramSnapshot) Quantile(q float64) uint64 {
	if s.Count == 0 {
		return 0
	}
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}
	target := uint64(q * float64(s.Count))
	if target == 0 {
		target = 1
	}
	var cum uint64
	for i, c := range s.Counts {
		cum += c
		if cum >= target {
			if i < len(s.Bounds) {
				return s.Bounds[i]
			}
			return s.Bounds[len(s.Bounds)-1]
		}
	}
	return s.Bounds[len(s.Bounds)-1]
}
