package coinfolio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/etnz/coinfolio/date"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// EncodeEvents writes the ledger's events as JSONL, one event per line, keys
// in a stable order so files diff cleanly under version control.
//
// Funds are implicitly denominated in the pair's quote currency; only the
// fee carries its own currency, since brokers charge fees in arbitrary
// assets.
func EncodeEvents(w io.Writer, ledger *Ledger) error {
	for _, e := range ledger.Events() {
		o := &jsonObjectWriter{}
		o.Append("datetime", e.Time)
		o.Append("pair", e.Pair)
		o.Append("side", e.Side)
		o.Append("size", e.Size)
		o.Append("funds", e.Funds.Decimal())
		o.Optional("fee", !e.Fee.IsZero(), e.Fee.Decimal())
		o.Optional("feeCurrency", !e.Fee.IsZero() && e.Fee.Currency() != e.Pair.Quote(), e.Fee.Currency())
		o.Optional("broker", e.Broker != "", e.Broker)

		data, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("encoding event %s %s: %w", e.Time, e.Pair, err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return err
		}
	}
	return nil
}

// eventLine mirrors one JSONL line of a ledger file.
type eventLine struct {
	Datetime    date.Datetime   `json:"datetime"`
	Pair        Pair            `json:"pair"`
	Side        Side            `json:"side"`
	Size        decimal.Decimal `json:"size"`
	Funds       decimal.Decimal `json:"funds"`
	Fee         decimal.Decimal `json:"fee"`
	FeeCurrency string          `json:"feeCurrency"`
	Broker      string          `json:"broker"`
}

// DecodeLedger reads a JSONL ledger, validating, deduplicating and sorting
// as it goes. Malformed lines abort the decode with the line number.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	ledger := NewLedger()
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue
		}
		var line eventLine
		if err := json.Unmarshal(lineBytes, &line); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if !line.Pair.Valid() {
			return nil, fmt.Errorf("line %d: invalid pair %q", n, line.Pair)
		}
		feeCurrency := line.FeeCurrency
		if feeCurrency == "" {
			feeCurrency = line.Pair.Quote()
		}
		e := Event{
			Time:   line.Datetime,
			Pair:   line.Pair,
			Side:   line.Side,
			Size:   Q(line.Size),
			Funds:  M(line.Funds, line.Pair.Quote()),
			Fee:    M(line.Fee, feeCurrency),
			Broker: line.Broker,
		}
		if err := ledger.Append(e); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ledger, nil
}
