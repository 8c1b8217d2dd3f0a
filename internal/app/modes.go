package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/matchbook/internal/domain"
	"github.com/alanyoungcy/matchbook/internal/feed"
)

const statsInterval = 5 * time.Second

// bookAdapter is the fan-out consumer that feeds book-impacting updates
// into the matching engine: QUOTE and BOOK_UPDATE records become LIMIT
// orders resting at the quoted price. Strategy-driven flow trades against
// this liquidity.
type bookAdapter struct {
	deps   *Dependencies
	logger *slog.Logger
}

// Name implements the fan-out subscriber interface.
func (b *bookAdapter) Name() string { return "book_adapter" }

// OnUpdate converts one update into engine liquidity and records the event.
func (b *bookAdapter) OnUpdate(u domain.MarketUpdate) {
	b.deps.Monitor.RecordEvent()
	if u.Kind == domain.UpdateTrade || u.Price == 0 || u.Quantity == 0 {
		return
	}
	o := domain.NewOrder(b.deps.Allocator.Next(), u.Side, domain.OrderTypeLimit, u.Price, u.Quantity)
	if err := b.deps.Engine.Submit(o); err != nil {
		b.logger.Debug("book adapter submit failed",
			slog.Uint64("order_id", uint64(o.ID)),
			slog.String("error", err.Error()),
		)
	}
}

// runSource is the shared run loop: subscribe consumers, start the update
// source, and emit periodic stats until the context is cancelled.
func (a *App) runSource(ctx context.Context, deps *Dependencies, source func(context.Context, func(domain.MarketUpdate)) error) error {
	adapter := &bookAdapter{deps: deps, logger: a.logger}
	deps.Fanout.Subscribe(adapter)
	deps.Fanout.Subscribe(deps.Strategy)

	deps.Monitor.Start()
	defer deps.Monitor.Stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return source(ctx, deps.Fanout.Publish)
	})

	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				a.logStats(ctx, deps)
			}
		}
	})

	err := g.Wait()

	deps.Fanout.Close()
	a.logStats(context.Background(), deps)

	if err == context.Canceled {
		return context.Canceled
	}
	return err
}

// logStats emits one structured telemetry record. Human-readable rendering
// is a consumer concern.
func (a *App) logStats(ctx context.Context, deps *Dependencies) {
	m := deps.Engine.Metrics()
	bid, ask := deps.Engine.TopOfBook()
	stats := deps.Strategy.Stats()
	lat := deps.Latency.Snapshot()

	a.logger.InfoContext(ctx, "engine stats",
		slog.Uint64("processed_orders", m.ProcessedOrders),
		slog.Uint64("matched_trades", m.MatchedTrades),
		slog.Float64("avg_latency_ns", m.AvgLatencyNanos),
		slog.Uint64("p99_latency_ns", lat.Quantile(0.99)),
		slog.Float64("events_per_second", deps.Monitor.EventsPerSecond()),
		slog.Uint64("best_bid", bid),
		slog.Uint64("best_ask", ask),
		slog.Uint64("signals", stats.SignalsEmitted),
		slog.Uint64("orders_submitted", stats.OrdersSubmitted),
		slog.Uint64("risk_rejected", deps.Risk.Rejected()),
		slog.Uint64("fanout_sequence", deps.Fanout.Sequence()),
	)
}

// SimMode drives the engine from the synthetic generator.
func (a *App) SimMode(ctx context.Context, deps *Dependencies) error {
	gen := feed.NewSynthetic(feed.SyntheticConfig{
		Symbols:       a.cfg.Feed.Symbols,
		Rate:          a.cfg.Feed.Rate,
		PriceMin:      a.cfg.Feed.PriceMin,
		PriceMax:      a.cfg.Feed.PriceMax,
		MaxQuantity:   a.cfg.Feed.MaxQuantity,
		TradeFraction: a.cfg.Feed.TradeFraction,
		Seed:          a.cfg.Feed.Seed,
	}, a.logger)

	return a.runSource(ctx, deps, gen.Run)
}

// FeedMode drives the engine from an external source (websocket or kafka).
func (a *App) FeedMode(ctx context.Context, deps *Dependencies) error {
	switch a.cfg.Feed.Source {
	case "ws":
		src := feed.NewWSSource(a.cfg.Feed.WSURL, a.logger)
		defer src.Close()
		return a.runSource(ctx, deps, src.Run)
	case "kafka":
		src := feed.NewKafkaSource(feed.KafkaConfig{
			Brokers: a.cfg.Feed.KafkaBrokers,
			Topic:   a.cfg.Feed.KafkaTopic,
			GroupID: a.cfg.Feed.KafkaGroupID,
		}, a.logger)
		defer func() { _ = src.Close() }()
		return a.runSource(ctx, deps, src.Run)
	default:
		// Validation rejects anything else, including synthetic-in-feed.
		src := feed.NewSynthetic(feed.SyntheticConfig{Symbols: a.cfg.Feed.Symbols}, a.logger)
		return a.runSource(ctx, deps, src.Run)
	}
}
