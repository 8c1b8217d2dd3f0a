// Package journal provides an optional append-only trade-event stream
// backed by pebble. The matching engine works without it; hosts wire it
// when they want a durable record of matches.
package journal

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/alanyoungcy/matchbook/internal/domain"
)

// recordLen is the fixed binary layout:
// [buy:8][sell:8][price:8][qty:8][unixNano:8]
const recordLen = 40

// Pebble is a TradeJournal writing fixed-size records keyed by a monotonic
// sequence number.
type Pebble struct {
	db     *pebble.DB
	seq    atomic.Uint64
	logger *slog.Logger
}

// Open opens (or creates) a journal at dir and resumes the sequence from
// the last stored record.
func Open(dir string, logger *slog.Logger) (*Pebble, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", dir, err)
	}
	j := &Pebble{
		db:     db,
		logger: logger.With(slog.String("component", "trade_journal")),
	}

	iter, err := db.NewIter(nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: iterator: %w", err)
	}
	if iter.Last() && len(iter.Key()) == 8 {
		j.seq.Store(binary.BigEndian.Uint64(iter.Key()))
	}
	if err := iter.Close(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: close iterator: %w", err)
	}

	j.logger.Info("trade journal opened",
		slog.String("dir", dir),
		slog.Uint64("last_seq", j.seq.Load()),
	)
	return j, nil
}

// Append writes one trade event. Writes skip the WAL fsync; the journal is
// an operational record, not the book of record.
func (j *Pebble) Append(ev domain.TradeEvent) error {
	seq := j.seq.Add(1)
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], seq)

	if err := j.db.Set(key[:], encode(ev), pebble.NoSync); err != nil {
		return fmt.Errorf("journal: append seq %d: %w", seq, err)
	}
	return nil
}

// Replay walks every stored event in sequence order. The walk stops at the
// first callback error.
func (j *Pebble) Replay(fn func(domain.TradeEvent) error) error {
	iter, err := j.db.NewIter(nil)
	if err != nil {
		return fmt.Errorf("journal: iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		ev, err := decode(iter.Value())
		if err != nil {
			return fmt.Errorf("journal: key %x: %w", iter.Key(), err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Len returns the last sequence number (the number of appended events for
// a journal that started empty).
func (j *Pebble) Len() uint64 {
	return j.seq.Load()
}

// Close flushes and closes the store.
func (j *Pebble) Close() error {
	return j.db.Close()
}

func encode(ev domain.TradeEvent) []byte {
	buf := make([]byte, recordLen)
	binary.BigEndian.PutUint64(buf[0:8], uint64(ev.BuyOrderID))
	binary.BigEndian.PutUint64(buf[8:16], uint64(ev.SellOrderID))
	binary.BigEndian.PutUint64(buf[16:24], ev.Price)
	binary.BigEndian.PutUint64(buf[24:32], ev.Quantity)
	binary.BigEndian.PutUint64(buf[32:40], uint64(ev.Timestamp.UnixNano()))
	return buf
}

func decode(b []byte) (domain.TradeEvent, error) {
	if len(b) != recordLen {
		return domain.TradeEvent{}, fmt.Errorf("invalid record length %d", len(b))
	}
	return domain.TradeEvent{
		BuyOrderID:  domain.OrderID(binary.BigEndian.Uint64(b[0:8])),
		SellOrderID: domain.OrderID(binary.BigEndian.Uint64(b[8:16])),
		Price:       binary.BigEndian.Uint64(b[16:24]),
		Quantity:    binary.BigEndian.Uint64(b[24:32]),
		Timestamp:   time.Unix(0, int64(binary.BigEndian.Uint64(b[32:40]))),
	}, nil
}
