package coinfolio

import (
	"fmt"
	"strings"

	"github.com/etnz/coinfolio/date"
)

// Side identifies the direction of an event relative to the base asset of
// its pair.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// ParseSide parses a string into a Side.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(s)) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown side: %q", s)
	}
}

// Pair is a trading pair in "BASE-QUOTE" form, e.g. "BTC-EUR". The base is
// the asset bought or sold, the quote is the counter asset the funds are
// denominated in.
type Pair string

// NewPair builds a pair from its base and quote symbols.
func NewPair(base, quote string) Pair {
	return Pair(strings.ToUpper(base) + "-" + strings.ToUpper(quote))
}

// Base returns the bought/sold asset symbol.
func (p Pair) Base() string {
	base, _, _ := strings.Cut(string(p), "-")
	return base
}

// Quote returns the counter asset symbol.
func (p Pair) Quote() string {
	_, quote, _ := strings.Cut(string(p), "-")
	return quote
}

// WithQuote returns the pair with its quote leg replaced.
func (p Pair) WithQuote(quote string) Pair { return NewPair(p.Base(), quote) }

func (p Pair) String() string { return string(p) }

// Valid reports whether the pair has a base and a quote.
func (p Pair) Valid() bool { return p.Base() != "" && p.Quote() != "" }

// Event is one transaction record of the ledger: a buy or sell of the pair's
// base asset against its quote asset.
//
// Sign conventions, enforced by Validate:
//   - Size is the signed quantity of the base asset: positive for a buy,
//     negative for a sell.
//   - Funds is the signed quantity of the quote asset exchanged: negative for
//     a buy (money paid), positive for a sell (money received).
//   - Fee is non-negative, in its own currency.
type Event struct {
	Time   date.Datetime
	Pair   Pair
	Side   Side
	Size   Quantity
	Funds  Money
	Fee    Money
	Broker string
}

// NewEvent builds an event from unsigned size and funds figures, applying the
// ledger sign conventions for the given side.
func NewEvent(t date.Datetime, pair Pair, side Side, size Quantity, funds Money, fee Money, broker string) Event {
	size = size.Abs()
	funds = funds.Abs().Neg()
	if side == Sell {
		size = size.Neg()
		funds = funds.Neg()
	}
	return Event{Time: t, Pair: pair, Side: side, Size: size, Funds: funds, Fee: fee.Abs(), Broker: broker}
}

// Price returns the unit price of the base asset implied by the event,
// always positive: -Funds/Size.
func (e Event) Price() Money {
	return e.Funds.Neg().Div(e.Size)
}

// Validate checks the event's fields and sign conventions. It returns a
// *MalformedEventError describing the first violation found.
func (e Event) Validate() error {
	if e.Time.IsZero() {
		return &MalformedEventError{Event: e, Reason: "missing datetime"}
	}
	if !e.Pair.Valid() {
		return &MalformedEventError{Event: e, Reason: fmt.Sprintf("invalid pair %q", e.Pair)}
	}
	if e.Side != Buy && e.Side != Sell {
		return &MalformedEventError{Event: e, Reason: fmt.Sprintf("invalid side %q", e.Side)}
	}
	if e.Size.IsZero() {
		return &MalformedEventError{Event: e, Reason: "zero size"}
	}
	if e.Side == Buy && !e.Size.IsPositive() {
		return &MalformedEventError{Event: e, Reason: "buy with non-positive size"}
	}
	if e.Side == Sell && !e.Size.IsNegative() {
		return &MalformedEventError{Event: e, Reason: "sell with non-negative size"}
	}
	if e.Side == Buy && e.Funds.IsPositive() {
		return &MalformedEventError{Event: e, Reason: "buy with positive funds"}
	}
	if e.Side == Sell && e.Funds.IsNegative() {
		return &MalformedEventError{Event: e, Reason: "sell with negative funds"}
	}
	if e.Fee.IsNegative() {
		return &MalformedEventError{Event: e, Reason: "negative fee"}
	}
	return nil
}

// Compare orders events chronologically; at the same instant buys come
// before sells, so a same-timestamp buy is available to cover a
// same-timestamp sell.
func (e Event) Compare(f Event) int {
	if c := e.Time.Compare(f.Time); c != 0 {
		return c
	}
	if c := strings.Compare(string(e.Pair), string(f.Pair)); c != 0 {
		return c
	}
	return strings.Compare(string(e.Side), string(f.Side))
}

// sameKey reports whether two events are the same record, up to the dedupe
// key (time, pair, side) used by the ledger.
func (e Event) sameKey(f Event) bool {
	return e.Time.Equal(f.Time) && e.Pair == f.Pair && e.Side == f.Side
}
