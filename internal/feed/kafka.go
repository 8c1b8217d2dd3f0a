package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

// KafkaConfig holds the consumer parameters for a kafka-backed feed.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// KafkaSource consumes market updates from a Kafka topic. Messages share
// the websocket JSON shape; per-feed ordering is the topic partition's
// ordering, so a feed should live on a single partition.
type KafkaSource struct {
	reader *kafka.Reader
	logger *slog.Logger
}

// NewKafkaSource creates a source reading from the configured topic.
func NewKafkaSource(cfg KafkaConfig, logger *slog.Logger) *KafkaSource {
	return &KafkaSource{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    cfg.Topic,
			GroupID:  cfg.GroupID,
			MinBytes: 1,
			MaxBytes: 1 << 20,
		}),
		logger: logger.With(slog.String("component", "kafka_feed")),
	}
}

// Run pumps messages until ctx is cancelled. Malformed messages are logged
// and skipped; read errors other than cancellation are returned.
func (k *KafkaSource) Run(ctx context.Context, publish func(domain.MarketUpdate)) error {
	k.logger.Info("kafka feed started", slog.String("topic", k.reader.Config().Topic))
	defer k.logger.Info("kafka feed stopped")

	for {
		msg, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("feed: kafka read: %w", err)
		}

		u, ok := parseUpdate(msg.Value, k.logger)
		if !ok {
			k.logger.Debug("skipped kafka message", slog.Int64("offset", msg.Offset))
			continue
		}
		publish(u)
	}
}

// Close releases the underlying reader.
func (k *KafkaSource) Close() error {
	return k.reader.Close()
}
