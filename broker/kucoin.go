package broker

import (
	"fmt"
	"io"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/date"
)

// KuCoin reads KuCoin spot trade exports: comma separated, one row per
// fill, with "tradeCreatedAt", "symbol", "side", "size", "funds" and "fee"
// columns. Amounts are unsigned; the side gives the direction.
type KuCoin struct{}

func (KuCoin) Name() string { return "KuCoin" }

func (k KuCoin) Transactions(r io.Reader) ([]coinfolio.Event, error) {
	t, err := readTable(r, ',', false)
	if err != nil {
		return nil, fmt.Errorf("reading KuCoin export: %w", err)
	}
	var fills []fill
	for _, row := range t.rows {
		sideCell, err := t.cell(row, "side")
		if err != nil {
			return nil, err
		}
		side, ok := parseSide(sideCell)
		if !ok {
			continue
		}
		stamp, err := t.cell(row, "tradeCreatedAt")
		if err != nil {
			return nil, err
		}
		when, err := date.ParseDatetime(stamp)
		if err != nil {
			return nil, fmt.Errorf("KuCoin row: %w", err)
		}
		symbol, err := t.cell(row, "symbol")
		if err != nil {
			return nil, err
		}
		size, err := t.number(row, "size")
		if err != nil {
			return nil, err
		}
		funds, err := t.number(row, "funds")
		if err != nil {
			return nil, err
		}
		fee, err := t.number(row, "fee")
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
			pair:  parsePair(symbol),
			side:  side,
			size:  size,
			funds: funds,
			fee:   fee,
		})
	}
	return events(fills, k.Name())
}
