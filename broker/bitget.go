package broker

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/date"
)

// Bitget reads Bitget spot trade exports: comma separated with "Date",
// "Trading pair", "Direction", "Amount", "Total", "Fee" and "Price"
// columns. Pairs come as concatenated symbols with a market suffix
// ("BTCUSDT_SPBL"); all spot pairs are quoted in USDT. The fee is charged
// in the base asset and converted into the quote at the row's price.
type Bitget struct{}

func (Bitget) Name() string { return "Bitget" }

func (b Bitget) Transactions(r io.Reader) ([]coinfolio.Event, error) {
	t, err := readTable(r, ',', false)
	if err != nil {
		return nil, fmt.Errorf("reading Bitget export: %w", err)
	}
	var fills []fill
	for _, row := range t.rows {
		direction, err := t.cell(row, "Direction")
		if err != nil {
			return nil, err
		}
		side, ok := parseSide(direction)
		if !ok {
			continue
		}
		stamp, err := t.cell(row, "Date")
		if err != nil {
			return nil, err
		}
		when, err := date.ParseDatetime(stamp)
		if err != nil {
			return nil, fmt.Errorf("Bitget row: %w", err)
		}
		symbol, err := t.cell(row, "Trading pair")
		if err != nil {
			return nil, err
		}
		size, err := t.number(row, "Amount")
		if err != nil {
			return nil, err
		}
		funds, err := t.number(row, "Total")
		if err != nil {
			return nil, err
		}
		fee, err := t.number(row, "Fee")
		if err != nil {
			return nil, err
		}
		price, err := t.number(row, "Price")
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
			pair:  bitgetPair(symbol),
			side:  side,
			size:  size,
			funds: funds,
			fee:   fee.Abs().Mul(price),
		})
	}
	return events(fills, b.Name())
}

// bitgetPair splits a concatenated Bitget symbol on its USDT quote:
// "BTCUSDT_SPBL" becomes "BTC-USDT".
func bitgetPair(symbol string) coinfolio.Pair {
	symbol = strings.TrimSuffix(symbol, "_SPBL")
	base := strings.TrimSuffix(symbol, "USDT")
	return coinfolio.NewPair(base, "USDT")
}
