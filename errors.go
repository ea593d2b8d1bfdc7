package coinfolio

import (
	"fmt"

	"github.com/etnz/coinfolio/date"
)

// The error types below form the failure taxonomy of the ledger pipeline.
// All of them are unrecoverable at the point of detection: there is no retry
// inside the core, and one asset's failure does not abort the computation
// for other assets.

// MalformedEventError reports an event that violates the ledger schema or
// its sign conventions. Such events are rejected at ingestion, before they
// can reach the matching engine.
type MalformedEventError struct {
	Event  Event
	Reason string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed event %s %s %s: %s", e.Event.Time, e.Event.Pair, e.Event.Side, e.Reason)
}

// DataInconsistencyError reports a sell whose size cannot be covered by the
// buy lots acquired before it (oversold position). The engine fails loudly
// instead of misattributing cost basis to the last available lot.
type DataInconsistencyError struct {
	Asset     string
	Time      date.Datetime
	Sold      Quantity // positive quantity the sell tried to dispose of
	Available Quantity // total lot size available at that instant
}

func (e *DataInconsistencyError) Error() string {
	return fmt.Sprintf("oversold %s at %s: selling %s with only %s acquired", e.Asset, e.Time, e.Sold, e.Available)
}

// MissingPriceDataError reports that no historical price row exists for a
// (symbol, day) the currency unifier needs. The affected event's report
// contribution is aborted rather than priced at zero or a guess.
type MissingPriceDataError struct {
	Symbol string
	Day    date.Date
}

func (e *MissingPriceDataError) Error() string {
	return fmt.Sprintf("no historical price for %s on %s", e.Symbol, e.Day)
}

// UnsupportedBrokerError reports a broker identifier with no registered
// adapter.
type UnsupportedBrokerError struct {
	Broker string
}

func (e *UnsupportedBrokerError) Error() string {
	return fmt.Sprintf("no adapter registered for broker %q", e.Broker)
}
