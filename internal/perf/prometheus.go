package perf

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes engine and monitor telemetry as Prometheus metrics.
// It is optional: the core runs without a registry.
type Collector struct {
	ordersProcessed prometheus.CounterFunc
	tradesMatched   prometheus.CounterFunc
	eventsPerSec    prometheus.GaugeFunc
	submitLatency   prometheus.Histogram
}

// NewCollector registers the matchbook metrics with the given registerer
// and returns a Collector whose ObserveSubmit should be wired into the
// engine's latency observer.
func NewCollector(reg prometheus.Registerer, stats func() (processed, matched uint64), monitor *Monitor) (*Collector, error) {
	c := &Collector{
		ordersProcessed: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "matchbook",
			Name:      "orders_processed_total",
			Help:      "Orders accepted by the matching engine.",
		}, func() float64 {
			processed, _ := stats()
			return float64(processed)
		}),
		tradesMatched: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "matchbook",
			Name:      "trades_matched_total",
			Help:      "Trade events produced by the matching engine.",
		}, func() float64 {
			_, matched := stats()
			return float64(matched)
		}),
		eventsPerSec: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "matchbook",
			Name:      "events_per_second",
			Help:      "Event throughput averaged over the performance monitor's measurement bracket.",
		}, func() float64 {
			return monitor.EventsPerSecond()
		}),
		submitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "matchbook",
			Name:      "submit_latency_seconds",
			Help:      "Per-submit processing latency.",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 12),
		}),
	}

	for _, m := range []prometheus.Collector{
		c.ordersProcessed, c.tradesMatched, c.eventsPerSec, c.submitLatency,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveSubmit records one submit latency sample.
func (c *Collector) ObserveSubmit(d time.Duration) {
	c.submitLatency.Observe(d.Seconds())
}
