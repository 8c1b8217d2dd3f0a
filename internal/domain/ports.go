package domain

import (
	"context"
	"time"
)

// PriceCache provides fast access to the latest reference price per symbol.
type PriceCache interface {
	SetPrice(ctx context.Context, symbol string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, symbol string) (float64, time.Time, error)
}

// TradeJournal is an optional append-only sink for trade events. The engine
// tolerates a slow or failing journal by counting errors; it never surfaces
// them on the matching path.
type TradeJournal interface {
	Append(ev TradeEvent) error
	Close() error
}

// AuditSink receives internal-consistency observations from the engine. It
// is injected at construction; production builds may wire a no-op.
type AuditSink interface {
	Record(component, detail string)
}
