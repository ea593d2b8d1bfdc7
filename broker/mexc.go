package broker

import (
	"fmt"
	"io"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/date"
)

// MEXC reads MEXC spot trade exports. MEXC exports in the account's display
// language; this adapter reads the German export: semicolon separated with
// "Zeit", "Paare", "Seite", "Ausgeführter Betrag", "Gesamt" and "Gebühr"
// columns, sides spelled "BUY"/"SELL".
type MEXC struct{}

func (MEXC) Name() string { return "MEXC" }

func (m MEXC) Transactions(r io.Reader) ([]coinfolio.Event, error) {
	t, err := readTable(r, ';', true)
	if err != nil {
		return nil, fmt.Errorf("reading MEXC export: %w", err)
	}
	var fills []fill
	for _, row := range t.rows {
		sideCell, err := t.cell(row, "Seite")
		if err != nil {
			return nil, err
		}
		side, ok := parseSide(sideCell)
		if !ok {
			continue
		}
		stamp, err := t.cell(row, "Zeit")
		if err != nil {
			return nil, err
		}
		when, err := date.ParseDatetime(stamp)
		if err != nil {
			return nil, fmt.Errorf("MEXC row: %w", err)
		}
		symbol, err := t.cell(row, "Paare")
		if err != nil {
			return nil, err
		}
		size, err := t.number(row, "Ausgeführter Betrag")
		if err != nil {
			return nil, err
		}
		funds, err := t.number(row, "Gesamt")
		if err != nil {
			return nil, err
		}
		fee, err := t.number(row, "Gebühr")
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
	return events(fills, m.Name())
}
