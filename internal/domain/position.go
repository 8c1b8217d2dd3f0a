package domain

// Position tracks signed inventory for one symbol. Quantity is positive when
// long and negative when short; AvgPrice is the volume-weighted entry price
// in ticks and changes only when the position quantity changes. Strategy
// position tracking is advisory — the book, not this record, is the source
// of truth for resting liquidity.
type Position struct {
	Symbol      string
	Quantity    int64
	AvgPrice    float64 // ticks, VWAP of the open quantity
	RealizedPnL float64 // ticks * quantity units
}

// Flat reports whether there is no open quantity.
func (p *Position) Flat() bool { return p.Quantity == 0 }

// ApplyFill folds one fill into the position. Buys add quantity, sells
// subtract. Fills that reduce or flip the position realize PnL against the
// current average price; any remainder opens in the fill's direction at the
// fill price.
func (p *Position) ApplyFill(side Side, price, quantity uint64) {
	signed := int64(quantity)
	if side == SideSell {
		signed = -signed
	}
	if p.Quantity == 0 || (p.Quantity > 0) == (signed > 0) {
		// Extending in the same direction: fold into the VWAP.
		oldAbs := abs64(p.Quantity)
		newAbs := oldAbs + abs64(signed)
		p.AvgPrice = (p.AvgPrice*float64(oldAbs) + float64(price)*float64(abs64(signed))) / float64(newAbs)
		p.Quantity += signed
		return
	}

	// Reducing or flipping: realize against the average price.
	closing := abs64(signed)
	open := abs64(p.Quantity)
	if closing > open {
		closing = open
	}
	perUnit := float64(price) - p.AvgPrice
	if p.Quantity < 0 {
		perUnit = -perUnit
	}
	p.RealizedPnL += perUnit * float64(closing)
	prev := p.Quantity
	p.Quantity += signed
	switch {
	case p.Quantity == 0:
		p.AvgPrice = 0
	case (p.Quantity > 0) != (prev > 0):
		// Flipped through flat: the remainder opens at the fill price.
		p.AvgPrice = float64(price)
	}
}

// UnrealizedPnL marks the open quantity against the given price in ticks.
func (p *Position) UnrealizedPnL(mark uint64) float64 {
	if p.Quantity == 0 {
		return 0
	}
	return (float64(mark) - p.AvgPrice) * float64(p.Quantity)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
