package broker

import (
	"fmt"
	"io"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/date"
)

// Bison reads Bison transaction exports: semicolon separated, latin-1
// encoded, with whitespace-padded column names. The pair is built from the
// "Asset" and "Currency" columns, the direction comes from
// "TransactionType" and the amounts are unsigned in "AssetAmount",
// "EurAmount" and "Fee".
type Bison struct{}

func (Bison) Name() string { return "Bison" }

func (b Bison) Transactions(r io.Reader) ([]coinfolio.Event, error) {
	t, err := readTable(r, ';', true)
	if err != nil {
		return nil, fmt.Errorf("reading Bison export: %w", err)
	}
	var fills []fill
	for _, row := range t.rows {
		typeCell, err := t.cell(row, "TransactionType")
		if err != nil {
			return nil, err
		}
		side, ok := parseSide(typeCell)
		if !ok {
			continue
		}
		stamp, err := t.cell(row, "Date")
		if err != nil {
			return nil, err
		}
		when, err := date.ParseDatetime(stamp)
		if err != nil {
			return nil, fmt.Errorf("Bison row: %w", err)
		}
		asset, err := t.cell(row, "Asset")
		if err != nil {
			return nil, err
		}
		currency, err := t.cell(row, "Currency")
		if err != nil {
			return nil, err
		}
		size, err := t.number(row, "AssetAmount")
		if err != nil {
			return nil, err
		}
		funds, err := t.number(row, "EurAmount")
		if err != nil {
			return nil, err
		}
		fee, err := t.number(row, "Fee")
		if err != nil {
			return nil, err
		}
		if side == coinfolio.Sell {
			size = size.Neg()
		} else {
			funds = funds.Neg()
		}
		fills = append(fills, fill{
			time:  when,
			pair:  coinfolio.NewPair(asset, currency),
			side:  side,
			size:  size,
			funds: funds,
			fee:   fee,
		})
	}
	return events(fills, b.Name())
}
