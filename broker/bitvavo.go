package broker

import (
	"fmt"
	"io"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/date"
)

// Bitvavo reads Bitvavo transaction exports: comma separated with split
// "Date" and "Time" columns, the traded asset in "Currency" (all pairs are
// against EUR), the row kind in "Type" and signed "Amount",
// "EUR received / paid" and "Fee amount" columns.
//
// Unlike most exchanges the export is already signed, so the amounts are
// taken as-is. Rows that are not trades (deposits, withdrawals, staking)
// are skipped.
type Bitvavo struct{}

func (Bitvavo) Name() string { return "Bitvavo" }

func (b Bitvavo) Transactions(r io.Reader) ([]coinfolio.Event, error) {
	t, err := readTable(r, ',', false)
	if err != nil {
		return nil, fmt.Errorf("reading Bitvavo export: %w", err)
	}
	var fills []fill
	for _, row := range t.rows {
		typeCell, err := t.cell(row, "Type")
		if err != nil {
			return nil, err
		}
		side, ok := parseSide(typeCell)
		if !ok {
			continue
		}
		day, err := t.cell(row, "Date")
		if err != nil {
			return nil, err
		}
		clock, err := t.cell(row, "Time")
		if err != nil {
			return nil, err
		}
		// The time column carries sub-second precision, keep hh:mm:ss.
		if len(clock) > 8 {
			clock = clock[:8]
		}
		when, err := date.ParseDatetime(day + " " + clock)
		if err != nil {
			return nil, fmt.Errorf("Bitvavo row: %w", err)
		}
		asset, err := t.cell(row, "Currency")
		if err != nil {
			return nil, err
		}
		size, err := t.number(row, "Amount")
		if err != nil {
			return nil, err
		}
		funds, err := t.number(row, "EUR received / paid")
		if err != nil {
			return nil, err
		}
		fee, err := t.number(row, "Fee amount")
		if err != nil {
			return nil, err
		}
		fills = append(fills, fill{
			time:  when,
			pair:  coinfolio.NewPair(asset, "EUR"),
			side:  side,
			size:  size,
			funds: funds,
			fee:   fee,
		})
	}
	return events(fills, b.Name())
}
