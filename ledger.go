package coinfolio

import (
	"iter"
	"slices"
	"sort"
)

// Ledger represents the append-only list of transaction events.
//
// In a Ledger events are always in chronological order, and duplicate
// records (same datetime, pair and side) are kept only once: broker exports
// overlap when re-imported, and the first record wins.
type Ledger struct {
	events []Event
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{events: make([]Event, 0)}
}

// Append validates and adds events to the ledger, keeping it sorted and
// deduplicated. It returns the first validation error encountered; valid
// events appended before the error remain in the ledger.
func (l *Ledger) Append(events ...Event) error {
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return err
		}
		if l.contains(e) {
			continue
		}
		l.events = append(l.events, e)
	}
	l.stableSort()
	return nil
}

func (l *Ledger) contains(e Event) bool {
	for _, f := range l.events {
		if f.sameKey(e) {
			return true
		}
	}
	return false
}

// stableSort sorts events chronologically, buys before sells at the same
// instant. Stable so that same-key events keep their input order.
func (l *Ledger) stableSort() {
	sort.SliceStable(l.events, func(i, j int) bool {
		return l.events[i].Compare(l.events[j]) < 0
	})
}

// Len returns the number of events in the ledger.
func (l *Ledger) Len() int { return len(l.events) }

// Events returns an iterator over all events, in chronological order,
// optionally filtered.
func (l *Ledger) Events(filters ...func(Event) bool) iter.Seq2[int, Event] {
	return func(yield func(int, Event) bool) {
		i := 0
		for _, e := range l.events {
			match := true
			for _, f := range filters {
				if !f(e) {
					match = false
					break
				}
			}
			if !match {
				continue
			}
			if !yield(i, e) {
				return
			}
			i++
		}
	}
}

// Snapshot returns a copy of the event list. Callers own the copy; the
// ledger itself is never mutated by derived computations.
func (l *Ledger) Snapshot() []Event {
	return slices.Clone(l.events)
}

// Assets returns an iterator over the distinct base assets of the ledger,
// in order of first appearance.
func (l *Ledger) Assets() iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := make(map[string]bool)
		for _, e := range l.events {
			base := e.Pair.Base()
			if seen[base] {
				continue
			}
			seen[base] = true
			if !yield(base) {
				return
			}
		}
	}
}

// Brokers returns an iterator over the distinct broker tags of the ledger,
// in order of first appearance.
func (l *Ledger) Brokers() iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := make(map[string]bool)
		for _, e := range l.events {
			if e.Broker == "" || seen[e.Broker] {
				continue
			}
			seen[e.Broker] = true
			if !yield(e.Broker) {
				return
			}
		}
	}
}

// ByAsset returns a filter that keeps events whose pair's base is the given
// asset.
func ByAsset(asset string) func(Event) bool {
	return func(e Event) bool { return e.Pair.Base() == asset }
}

// ByBroker returns a filter that keeps events with the given broker tag.
func ByBroker(broker string) func(Event) bool {
	return func(e Event) bool { return e.Broker == broker }
}
