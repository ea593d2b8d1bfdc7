package coinfolio

import (
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/coinfolio/date"
)

// RateSource provides daily fiat conversion rates.
type RateSource interface {
	// Rate returns the conversion rate from one fiat currency to another on
	// the given day.
	Rate(from, to string, on date.Date) (Quantity, error)
}

// OHLC is one daily candle of a symbol, in the reference currency.
type OHLC struct {
	Open  Money
	Close Money
}

// Mid returns the middle of the day's open and close, the price used to
// value crypto-to-crypto legs.
func (c OHLC) Mid() Money {
	return c.Open.Add(c.Close).Div(Q(2))
}

// HistorySource provides daily historical candles for crypto symbols,
// denominated in the reference currency.
type HistorySource interface {
	Daily(symbol string, on date.Date) (OHLC, error)
}

// SpotSource provides the current reference-currency price for a symbol.
// It is consumed by the aggregator only, never by the matching engine.
type SpotSource interface {
	Price(symbol string) (Money, error)
}

// fiat currencies the rate source can convert directly. Anything else on the
// quote side of a pair is a crypto asset and needs the swap decomposition.
var fiatCurrencies = map[string]bool{
	"EUR": true, "USD": true, "GBP": true, "CHF": true,
	"CAD": true, "AUD": true, "JPY": true,
}

// IsFiat reports whether the symbol is a fiat currency.
func IsFiat(symbol string) bool { return fiatCurrencies[strings.ToUpper(symbol)] }

// Unifier rewrites every event of a ledger into a single reference currency.
// It is a pure function over an event snapshot: input events are never
// mutated.
type Unifier struct {
	Reference string // e.g. "USD"
	Rates     RateSource
	History   HistorySource
}

// NewUnifier creates a Unifier for the given reference currency.
func NewUnifier(reference string, rates RateSource, history HistorySource) *Unifier {
	return &Unifier{Reference: reference, Rates: rates, History: history}
}

// Unify returns a new event list where every pair is quoted in the reference
// currency and every fee is denominated in it.
//
// Three cases per event:
//   - quote already the reference currency: passed through unchanged (minus
//     fee conversion if the fee is in a third asset), so unifying an
//     already-unified ledger is a no-op.
//   - fiat quote: funds and same-currency fee are multiplied by the daily
//     conversion rate, and the pair is relabelled.
//   - crypto quote (a swap): the event is split into a synthetic sell of the
//     quote asset against the reference currency, priced at the mid of that
//     day's open/close, plus the original leg relabelled against the
//     reference currency with funds matching the synthetic leg. The two legs
//     net to the value of the original swap.
//
// A missing historical price row surfaces as a *MissingPriceDataError; no
// event is ever silently priced at zero.
func (u *Unifier) Unify(events []Event) ([]Event, error) {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		unified, err := u.unifyEvent(e)
		if err != nil {
			return nil, err
		}
		out = append(out, unified...)
	}
	slices.SortStableFunc(out, Event.Compare)
	return out, nil
}

func (u *Unifier) unifyEvent(e Event) ([]Event, error) {
	quote := e.Pair.Quote()
	switch {
	case quote == u.Reference:
		fee, err := u.unifyFee(e.Fee, e.Time.Day())
		if err != nil {
			return nil, err
		}
		e.Fee = fee
		return []Event{e}, nil

	case IsFiat(quote):
		rate, err := u.Rates.Rate(quote, u.Reference, e.Time.Day())
		if err != nil {
			return nil, fmt.Errorf("converting %s leg of %s: %w", quote, e.Pair, err)
		}
		e.Funds = e.Funds.As(u.Reference, rate)
		if e.Fee.Currency() == quote {
			e.Fee = e.Fee.As(u.Reference, rate)
		} else if fee, err := u.unifyFee(e.Fee, e.Time.Day()); err != nil {
			return nil, err
		} else {
			e.Fee = fee
		}
		e.Pair = e.Pair.WithQuote(u.Reference)
		return []Event{e}, nil

	default:
		return u.splitSwap(e)
	}
}

// splitSwap decomposes a crypto-to-crypto trade into two reference-currency
// events: a disposal of the quote asset and the original base leg, both
// valued at the quote asset's historical mid price of the day.
func (u *Unifier) splitSwap(e Event) ([]Event, error) {
	quote := e.Pair.Quote()
	candle, err := u.History.Daily(quote, e.Time.Day())
	if err != nil {
		return nil, err
	}
	mid := candle.Mid()

	// The synthetic leg disposes of (or, for a base sell, acquires) the
	// quote asset against the reference currency. Its size is the original
	// funds figure, already signed opposite to the base size.
	size := e.Funds.Units()
	synthetic := Event{
		Time:   e.Time,
		Pair:   NewPair(quote, u.Reference),
		Side:   e.Side.flip(),
		Size:   size,
		Funds:  mid.Mul(size).Neg(),
		Broker: e.Broker,
	}
	if e.Fee.Currency() == quote {
		synthetic.Fee = M(mid.Decimal().Mul(e.Fee.Decimal()), u.Reference)
	} else if fee, err := u.unifyFee(e.Fee, e.Time.Day()); err != nil {
		return nil, err
	} else {
		synthetic.Fee = fee
	}

	// The original leg keeps its side and size, but its funds are replaced
	// by the negated synthetic funds so both legs net to the same value as
	// the original cross-asset swap.
	original := Event{
		Time:   e.Time,
		Pair:   e.Pair.WithQuote(u.Reference),
		Side:   e.Side,
		Size:   e.Size,
		Funds:  synthetic.Funds.Neg(),
		Fee:    M(0, u.Reference),
		Broker: e.Broker,
	}
	return []Event{original, synthetic}, nil
}

// unifyFee converts a fee into the reference currency: fiat fees through the
// rate source, crypto fees through the historical mid price of the day.
func (u *Unifier) unifyFee(fee Money, on date.Date) (Money, error) {
	switch {
	case fee.IsZero() || fee.Currency() == u.Reference || fee.Currency() == "":
		return M(fee.Decimal(), u.Reference), nil
	case IsFiat(fee.Currency()):
		rate, err := u.Rates.Rate(fee.Currency(), u.Reference, on)
		if err != nil {
			return Money{}, fmt.Errorf("converting fee currency %s: %w", fee.Currency(), err)
		}
		return fee.As(u.Reference, rate), nil
	default:
		candle, err := u.History.Daily(fee.Currency(), on)
		if err != nil {
			return Money{}, err
		}
		return M(candle.Mid().Decimal().Mul(fee.Decimal()), u.Reference), nil
	}
}

func (s Side) flip() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}
