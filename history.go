package coinfolio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/coinfolio/date"
	"github.com/shopspring/decimal"
)

// DirHistory is a HistorySource backed by a directory of per-symbol CSV
// files, one file per symbol named "<SYM>.csv" with semicolon-separated
// "timestamp", "open" and "close" columns (the export format of the price
// scanner, see the cmc package).
//
// Files are parsed once and kept in memory, so repeated lookups during a
// unification pass cost nothing.
type DirHistory struct {
	Root      string
	Reference string

	days map[string]map[date.Date]OHLC
}

// NewDirHistory creates a DirHistory rooted at dir, with candles denominated
// in the given reference currency.
func NewDirHistory(dir, reference string) *DirHistory {
	return &DirHistory{Root: dir, Reference: reference, days: map[string]map[date.Date]OHLC{}}
}

// Daily returns the candle for symbol on the given day, or a
// *MissingPriceDataError if the symbol has no file or the file has no row
// for that day.
func (h *DirHistory) Daily(symbol string, on date.Date) (OHLC, error) {
	if h.days == nil {
		h.days = map[string]map[date.Date]OHLC{}
	}
	days, ok := h.days[symbol]
	if !ok {
		var err error
		days, err = h.load(symbol, on)
		if err != nil {
			return OHLC{}, err
		}
		h.days[symbol] = days
	}
	candle, ok := days[on]
	if !ok {
		return OHLC{}, &MissingPriceDataError{Symbol: symbol, Day: on}
	}
	return candle, nil
}

func (h *DirHistory) load(symbol string, on date.Date) (map[date.Date]OHLC, error) {
	name := filepath.Join(h.Root, symbol+".csv")
	f, err := os.Open(name)
	if os.IsNotExist(err) {
		return nil, &MissingPriceDataError{Symbol: symbol, Day: on}
	}
	if err != nil {
		return nil, fmt.Errorf("reading history for %s: %w", symbol, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("parsing %s: empty file", name)
	}

	col := map[string]int{}
	for i, header := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, required := range []string{"timestamp", "open", "close"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("parsing %s: missing column %q", name, required)
		}
	}

	days := make(map[date.Date]OHLC, len(rows)-1)
	for _, row := range rows[1:] {
		stamp := row[col["timestamp"]]
		if len(stamp) < 10 {
			return nil, fmt.Errorf("parsing %s: bad timestamp %q", name, stamp)
		}
		day, err := date.Parse(stamp[:10])
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		open, err := decimal.NewFromString(row[col["open"]])
		if err != nil {
			return nil, fmt.Errorf("parsing %s on %s: %w", name, day, err)
		}
		close, err := decimal.NewFromString(row[col["close"]])
		if err != nil {
			return nil, fmt.Errorf("parsing %s on %s: %w", name, day, err)
		}
		days[day] = OHLC{Open: M(open, h.Reference), Close: M(close, h.Reference)}
	}
	return days, nil
}
