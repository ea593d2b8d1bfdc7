package coinfolio

import (
	"github.com/etnz/coinfolio/date"
)

// Lot is a single buy acquisition of an asset, tracked with its own
// remaining size and cost basis until fully consumed by later sells.
type Lot struct {
	AcquiredAt    date.Datetime
	OriginalSize  Quantity // > 0
	RemainingSize Quantity // in [0, OriginalSize], non-increasing across sells
	OriginalCost  Money    // <= 0, money paid for the lot
	RemainingCost Money    // consumed proportionally to RemainingSize
}

// newLot derives a lot from a buy event.
func newLot(e Event) *Lot {
	return &Lot{
		AcquiredAt:    e.Time,
		OriginalSize:  e.Size,
		RemainingSize: e.Size,
		OriginalCost:  e.Funds,
		RemainingCost: e.Funds,
	}
}

type Lots []*Lot

// available is the total remaining size over all lots.
func (l Lots) available() Quantity {
	total := Q(0)
	for _, lot := range l {
		total = total.Add(lot.RemainingSize)
	}
	return total
}

// consumption is one lot's contribution to a sell: the size taken from the
// lot and the cost basis going with it.
type consumption struct {
	lot  *Lot
	size Quantity // > 0, base asset taken from the lot
	cost Money    // <= 0, prorated share of the lot's remaining cost
}

// consume takes quantity off the lots in FIFO order (oldest acquisition
// first) and returns the per-lot consumptions. The caller must have checked
// that enough size is available. Cost basis is prorated by the size ratio of
// the lot's remaining holdings, so partially consumed lots carry their
// remaining cost forward.
func (l Lots) consume(quantity Quantity) []consumption {
	var touched []consumption
	for _, lot := range l {
		if quantity.IsZero() {
			break
		}
		if lot.RemainingSize.IsZero() {
			continue
		}
		if lot.RemainingSize.GreaterThan(quantity) {
			// Boundary lot: partially consumed by this sell.
			cost := lot.RemainingCost.Mul(quantity).Div(lot.RemainingSize)
			lot.RemainingCost = lot.RemainingCost.Sub(cost)
			lot.RemainingSize = lot.RemainingSize.Sub(quantity)
			touched = append(touched, consumption{lot: lot, size: quantity, cost: cost})
			quantity = Q(0)
		} else {
			// Fully consumed: its entire remaining cost is realized.
			c := consumption{lot: lot, size: lot.RemainingSize, cost: lot.RemainingCost}
			quantity = quantity.Sub(lot.RemainingSize)
			lot.RemainingSize = Q(0)
			lot.RemainingCost = M(0, lot.RemainingCost.Currency())
			touched = append(touched, c)
		}
	}
	return touched
}
