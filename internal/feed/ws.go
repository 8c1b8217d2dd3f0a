package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

// wsUpdate is the JSON shape the websocket source consumes.
type wsUpdate struct {
	Kind      string `json:"kind"` // "trade", "quote", "book_update"
	Symbol    string `json:"symbol"`
	Price     uint64 `json:"price"` // ticks
	Quantity  uint64 `json:"quantity"`
	Side      string `json:"side"` // "buy" or "sell"
	Timestamp string `json:"timestamp"`
}

// WSSource consumes market updates from a websocket endpoint and publishes
// them into the fan-out. It reconnects with a fixed backoff on disconnect.
type WSSource struct {
	url       string
	logger    *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// NewWSSource creates a source for the given websocket URL.
func NewWSSource(url string, logger *slog.Logger) *WSSource {
	return &WSSource{
		url:    url,
		logger: logger.With(slog.String("component", "ws_feed")),
		done:   make(chan struct{}),
	}
}

// Run connects and pumps messages until ctx is cancelled or Close is
// called. Malformed messages are skipped; only JSON decode failures are
// logged.
func (w *WSSource) Run(ctx context.Context, publish func(domain.MarketUpdate)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		default:
		}

		if err := w.runConnection(ctx, publish); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Warn("websocket disconnected, reconnecting",
				slog.String("error", err.Error()),
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-time.After(2 * time.Second):
		}
	}
}

func (w *WSSource) runConnection(ctx context.Context, publish func(domain.MarketUpdate)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock ReadMessage when the context ends.
	go func() {
		select {
		case <-ctx.Done():
		case <-w.done:
		}
		_ = conn.Close()
	}()

	w.logger.Info("websocket connected", slog.String("url", w.url))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return domain.ErrWSDisconnect
		}
		u, ok := parseUpdate(data, w.logger)
		if !ok {
			continue
		}
		publish(u)
	}
}

// parseUpdate maps one JSON message to a MarketUpdate. Shared by the
// websocket and kafka sources, which carry the same payload shape.
func parseUpdate(data []byte, logger *slog.Logger) (domain.MarketUpdate, bool) {
	var msg wsUpdate
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Debug("malformed feed message",
			slog.String("error", err.Error()),
			slog.Int("payload_len", len(data)),
		)
		return domain.MarketUpdate{}, false
	}
	symbol := strings.TrimSpace(msg.Symbol)
	if symbol == "" || msg.Quantity == 0 {
		return domain.MarketUpdate{}, false
	}

	u := domain.MarketUpdate{
		Symbol:    symbol,
		Price:     msg.Price,
		Quantity:  msg.Quantity,
		Timestamp: time.Now(),
	}
	switch strings.ToLower(msg.Kind) {
	case "trade":
		u.Kind = domain.UpdateTrade
	case "quote":
		u.Kind = domain.UpdateQuote
	case "book_update":
		u.Kind = domain.UpdateBookUpdate
	default:
		return domain.MarketUpdate{}, false
	}
	if strings.EqualFold(msg.Side, "sell") {
		u.Side = domain.SideSell
	}
	if msg.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, msg.Timestamp); err == nil {
			u.Timestamp = t
		}
	}
	return u, true
}

// Close stops the source.
func (w *WSSource) Close() {
	w.closeOnce.Do(func() { close(w.done) })
}
