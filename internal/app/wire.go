package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alanyoungcy/matchbook/internal/audit"
	"github.com/alanyoungcy/matchbook/internal/book"
	memorycache "github.com/alanyoungcy/matchbook/internal/cache/memory"
	rediscache "github.com/alanyoungcy/matchbook/internal/cache/redis"
	"github.com/alanyoungcy/matchbook/internal/config"
	"github.com/alanyoungcy/matchbook/internal/domain"
	"github.com/alanyoungcy/matchbook/internal/feed"
	"github.com/alanyoungcy/matchbook/internal/journal"
	"github.com/alanyoungcy/matchbook/internal/perf"
	"github.com/alanyoungcy/matchbook/internal/pool"
	"github.com/alanyoungcy/matchbook/internal/risk"
	"github.com/alanyoungcy/matchbook/internal/strategy"
)

// Dependencies bundles everything the run modes need to operate. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Engine    *book.Engine
	Fanout    *feed.Fanout
	Workers   *pool.Pool // nil when delivery is synchronous
	Strategy  *strategy.Engine
	Risk      *risk.Filter
	Monitor   *perf.Monitor
	Latency   *perf.LatencyHistogram
	Audit     *audit.Log
	Allocator *domain.OrderIDAllocator
	TickScale domain.TickScale
}

// Wire constructs all concrete dependencies from the configuration and
// returns them together with a cleanup function that releases resources in
// reverse order.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Monitor:   perf.NewMonitor(),
		Latency:   perf.NewLatencyHistogram(),
		Audit:     audit.NewLog(cfg.Engine.AuditLimit),
		Allocator: domain.NewOrderIDAllocator(),
		TickScale: domain.TickScale(cfg.Engine.TickScale),
	}

	// --- Price cache: Redis when enabled, in-memory otherwise ---
	var prices domain.PriceCache
	if cfg.Redis.Enabled {
		client, err := rediscache.NewClient(ctx, rediscache.Config{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, client.Close)
		prices = rediscache.NewPriceCache(client)
	} else {
		prices = memorycache.NewPriceCache()
	}

	// eng is referenced by closures built before the engine itself; it is
	// assigned below, before anything can invoke them.
	var eng *book.Engine

	// --- Prometheus collector (listener starts after wiring) ---
	var collector *perf.Collector
	var metricsReg *prometheus.Registry
	if cfg.Metrics.Enabled {
		metricsReg = prometheus.NewRegistry()
		var err error
		collector, err = perf.NewCollector(metricsReg, func() (uint64, uint64) {
			if eng == nil {
				return 0, 0
			}
			m := eng.Metrics()
			return m.ProcessedOrders, m.MatchedTrades
		}, deps.Monitor)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: metrics: %w", err)
		}
	}

	// --- Matching engine with optional journal ---
	engineOpts := []book.Option{
		book.WithAudit(deps.Audit),
		book.WithTradeRetention(cfg.Engine.TradeRetention),
		book.WithDebug(cfg.Engine.Debug),
		book.WithLatencyObserver(func(d time.Duration) {
			deps.Latency.Observe(d)
			if collector != nil {
				collector.ObserveSubmit(d)
			}
		}),
	}
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Dir, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: journal: %w", err)
		}
		closers = append(closers, func() { _ = j.Close() })
		engineOpts = append(engineOpts, book.WithJournal(j))
	}

	// --- Strategies, risk, strategy engine ---
	stratCfg := strategy.Config{
		MomentumThreshold: cfg.Strategy.MomentumThreshold,
		RSIOversold:       cfg.Strategy.RSIOversold,
		RSIOverbought:     cfg.Strategy.RSIOverbought,
		ShortPeriod:       cfg.Strategy.ShortPeriod,
		LongPeriod:        cfg.Strategy.LongPeriod,
		RSIPeriod:         cfg.Strategy.RSIPeriod,
		PositionSize:      cfg.Strategy.PositionSize,
		StopLossPct:       cfg.Strategy.StopLossPct,
		TakeProfitPct:     cfg.Strategy.TakeProfitPct,
		StdDevThreshold:   cfg.Strategy.StdDevThreshold,
		HistoryCapacity:   cfg.Strategy.HistoryCapacity,
	}
	registry := strategy.NewRegistry()
	for _, name := range cfg.Strategy.Active {
		switch name {
		case "momentum":
			registry.Register(name, strategy.NewMomentum(stratCfg, logger))
		case "mean_reversion":
			registry.Register(name, strategy.NewMeanReversion(stratCfg, logger))
		default:
			cleanup()
			return nil, nil, fmt.Errorf("wire: unknown strategy %q", name)
		}
	}
	closers = append(closers, func() { _ = registry.Close() })

	deps.Risk = risk.NewFilter(risk.Config{
		MaxOrderQuantity:    cfg.Risk.MaxOrderQuantity,
		MaxNotionalPerOrder: cfg.Risk.MaxNotionalPerOrder,
		MaxOrdersPerBatch:   cfg.Risk.MaxOrdersPerBatch,
		MaxDailyVolume:      cfg.Risk.MaxDailyVolume,
		MaxPositionPct:      cfg.Risk.MaxPositionPct,
	}, func() (uint64, uint64) { return eng.Liquidity() }, logger)

	sink := submitFunc(func(o *domain.Order) error { return eng.Submit(o) })
	deps.Strategy = strategy.NewEngine(registry, deps.Risk, sink, deps.Allocator, prices, logger)

	engineOpts = append(engineOpts, book.WithTradeHandler(deps.Strategy.OnTradeEvent))
	eng = book.NewEngine(logger, engineOpts...)
	deps.Engine = eng

	// --- Worker surface and fan-out ---
	if cfg.Pool.Workers > 0 {
		deps.Workers = pool.New(cfg.Pool.Workers, cfg.Pool.Capacity, logger)
		closers = append(closers, deps.Workers.Shutdown)
	}
	deps.Fanout = feed.NewFanout(deps.Workers, logger)

	// --- Metrics listener ---
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics listener failed", slog.String("error", err.Error()))
			}
		}()
		closers = append(closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		})
	}

	return deps, cleanup, nil
}

// submitFunc adapts a closure to the strategy.OrderSink interface.
type submitFunc func(*domain.Order) error

func (f submitFunc) Submit(o *domain.Order) error { return f(o) }
