// Package broker turns exchange trade-history exports into ledger events.
//
// Each exchange ships its own CSV dialect: its own column names, delimiter,
// sign conventions and sometimes its own language. An Adapter knows one
// dialect and produces normalized events: buys with positive size and
// negative funds, sells the other way around, fees denominated in the
// pair's quote currency.
//
// Exchanges report partial fills as separate rows; fills of the same order
// share a timestamp, pair and side and are summed into a single event.
package broker

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/date"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

// Adapter reads one exchange's trade-history export.
type Adapter interface {
	// Name is the broker name stamped on every produced event.
	Name() string
	// Transactions parses a trade-history CSV into normalized events.
	Transactions(r io.Reader) ([]coinfolio.Event, error)
}

var adapters = []Adapter{
	KuCoin{},
	MEXC{},
	Bitvavo{},
	Bison{},
	Bitget{},
}

// Detect returns the adapter for a trade-history file, matched by broker
// name appearing in the file path. Unknown files return an
// *UnsupportedBrokerError so callers can report which file they could not
// import.
func Detect(path string) (Adapter, error) {
	name := strings.ToLower(filepath.Base(path))
	for _, a := range adapters {
		if strings.Contains(name, strings.ToLower(a.Name())) {
			return a, nil
		}
	}
	return nil, &coinfolio.UnsupportedBrokerError{Broker: path}
}

// ByName returns the adapter with the given broker name.
func ByName(name string) (Adapter, error) {
	for _, a := range adapters {
		if strings.EqualFold(a.Name(), name) {
			return a, nil
		}
	}
	return nil, &coinfolio.UnsupportedBrokerError{Broker: name}
}

// Names lists the supported broker names.
func Names() []string {
	names := make([]string, len(adapters))
	for i, a := range adapters {
		names[i] = a.Name()
	}
	return names
}

// table is a parsed CSV with header-based column access.
type table struct {
	header map[string]int
	rows   [][]string
}

// readTable parses a CSV stream. Header names and cell values are
// whitespace-trimmed, since some exports pad their columns.
func readTable(r io.Reader, comma rune, latin1 bool) (*table, error) {
	if latin1 {
		r = charmap.ISO8859_1.NewDecoder().Reader(r)
	}
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	t := &table{header: map[string]int{}, rows: rows[1:]}
	for i, name := range rows[0] {
		t.header[strings.TrimSpace(name)] = i
	}
	for _, row := range t.rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}
	return t, nil
}

// cell returns the named column of a row, or an error naming the missing
// column so a changed export format fails loudly.
func (t *table) cell(row []string, column string) (string, error) {
	i, ok := t.header[column]
	if !ok {
		return "", fmt.Errorf("missing column %q", column)
	}
	if i >= len(row) {
		return "", fmt.Errorf("row too short for column %q", column)
	}
	return row[i], nil
}

func (t *table) number(row []string, column string) (decimal.Decimal, error) {
	s, err := t.cell(row, column)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if s == "" {
		return decimal.Decimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("column %q: %w", column, err)
	}
	return d, nil
}

// fill is one raw trade row after an adapter normalized its dialect:
// timestamped, signed, but not yet merged with sibling fills.
type fill struct {
	time  date.Datetime
	pair  coinfolio.Pair
	side  coinfolio.Side
	size  decimal.Decimal
	funds decimal.Decimal
	fee   decimal.Decimal
}

// events merges fills of the same (time, pair, side) by summing their
// amounts, then builds validated events. The fee is denominated in the
// pair's quote currency.
func events(fills []fill, broker string) ([]coinfolio.Event, error) {
	type key struct {
		time date.Datetime
		pair coinfolio.Pair
		side coinfolio.Side
	}
	merged := map[key]*fill{}
	var order []key
	for _, f := range fills {
		k := key{f.time, f.pair, f.side}
		m, ok := merged[k]
		if !ok {
			f := f
			merged[k] = &f
			order = append(order, k)
			continue
		}
		m.size = m.size.Add(f.size)
		m.funds = m.funds.Add(f.funds)
		m.fee = m.fee.Add(f.fee)
	}

	out := make([]coinfolio.Event, 0, len(order))
	for _, k := range order {
		f := merged[k]
		e := coinfolio.Event{
			Time:   f.time,
			Pair:   f.pair,
			Side:   f.side,
			Size:   coinfolio.Q(f.size),
			Funds:  coinfolio.M(f.funds, f.pair.Quote()),
			Fee:    coinfolio.M(f.fee, f.pair.Quote()),
			Broker: broker,
		}
		if err := e.Validate(); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	slices.SortStableFunc(out, coinfolio.Event.Compare)
	return out, nil
}

// parseSide accepts the side column in any casing and rejects anything that
// is not a trade (deposits, staking rewards and the like appear in some
// exports).
func parseSide(s string) (coinfolio.Side, bool) {
	side, err := coinfolio.ParseSide(s)
	return side, err == nil
}

// parsePair normalizes an exchange symbol like "BTC_USDT" or "btc-usdt"
// into a Pair.
func parsePair(s string) coinfolio.Pair {
	s = strings.ReplaceAll(s, "_", "-")
	base, quote, _ := strings.Cut(s, "-")
	return coinfolio.NewPair(base, quote)
}
