package coinfolio

import (
	"errors"
	"testing"

	"github.com/etnz/coinfolio/date"
)

// fixedRates is a RateSource for tests with a single rate for every day.
type fixedRates map[string]float64

func (r fixedRates) Rate(from, to string, on date.Date) (Quantity, error) {
	rate, ok := r[from+"-"+to]
	if !ok {
		return Q(0), errors.New("no rate for " + from + "-" + to)
	}
	return Q(rate), nil
}

// fixedHistory is a HistorySource for tests keyed by symbol only.
type fixedHistory map[string]OHLC

func (h fixedHistory) Daily(symbol string, on date.Date) (OHLC, error) {
	candle, ok := h[symbol]
	if !ok {
		return OHLC{}, &MissingPriceDataError{Symbol: symbol, Day: on}
	}
	return candle, nil
}

func testUnifier() *Unifier {
	return NewUnifier("USD",
		fixedRates{"EUR-USD": 1.2},
		fixedHistory{
			"BNB": {Open: USD(200), Close: USD(220)}, // mid 210
			"ETH": {Open: USD(2000), Close: USD(2200)},
		},
	)
}

func TestUnify_Idempotent(t *testing.T) {
	events := []Event{
		buy("2024-01-01 10:00:00", "BTC", 1, -10000),
		sell("2024-02-01 10:00:00", "BTC", 1, 12000),
	}
	once, err := testUnifier().Unify(events)
	if err != nil {
		t.Fatalf("Unify() error = %v", err)
	}
	twice, err := testUnifier().Unify(once)
	if err != nil {
		t.Fatalf("Unify() error = %v", err)
	}
	if len(once) != len(events) || len(twice) != len(once) {
		t.Fatalf("Unify() changed the event count on an already-unified ledger")
	}
	for i := range twice {
		if !twice[i].Funds.Equal(once[i].Funds) || !twice[i].Size.Equal(once[i].Size) || twice[i].Pair != once[i].Pair {
			t.Errorf("event %d mutated by second unification", i)
		}
	}
}

func TestUnify_FiatQuote(t *testing.T) {
	e := NewEvent(at("2024-01-01 10:00:00"), "BTC-EUR", Buy, Q(0.02), EUR(1000), EUR(5), "Bison")
	out, err := testUnifier().Unify([]Event{e})
	if err != nil {
		t.Fatalf("Unify() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d events, want 1", len(out))
	}
	got := out[0]
	if got.Pair != "BTC-USD" {
		t.Errorf("Pair = %s, want BTC-USD", got.Pair)
	}
	if !got.Funds.Equal(USD(-1200)) {
		t.Errorf("Funds = %s, want -1200", got.Funds)
	}
	if !got.Fee.Equal(USD(6)) {
		t.Errorf("Fee = %s, want 6", got.Fee)
	}
	// Size in the base asset is untouched by the conversion.
	if !got.Size.Equal(Q(0.02)) {
		t.Errorf("Size = %s, want 0.02", got.Size)
	}
}

func TestUnify_SwapSplit(t *testing.T) {
	// Buying WECO with 0.008 BNB, fee 0.001 BNB. BNB mid is 210.
	e := NewEvent(at("2024-01-01 10:00:00"), "WECO-BNB", Buy, Q(6486), M(0.008, "BNB"), M(0.001, "BNB"), "PancakeSwap")
	out, err := testUnifier().Unify([]Event{e})
	if err != nil {
		t.Fatalf("Unify() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d events, want 2", len(out))
	}

	var original, synthetic Event
	for _, ev := range out {
		switch ev.Pair.Base() {
		case "WECO":
			original = ev
		case "BNB":
			synthetic = ev
		}
	}

	// Synthetic leg: a sell of 0.008 BNB valued at mid 210.
	if synthetic.Side != Sell || synthetic.Pair != "BNB-USD" {
		t.Errorf("synthetic leg = %s %s, want sell BNB-USD", synthetic.Side, synthetic.Pair)
	}
	if !synthetic.Size.Equal(Q(-0.008)) {
		t.Errorf("synthetic Size = %s, want -0.008", synthetic.Size)
	}
	if !synthetic.Funds.Equal(USD(1.68)) { // 210 * 0.008
		t.Errorf("synthetic Funds = %s, want 1.68", synthetic.Funds)
	}
	if !synthetic.Fee.Equal(USD(0.21)) { // 210 * 0.001
		t.Errorf("synthetic Fee = %s, want 0.21", synthetic.Fee)
	}

	// Original leg: the WECO buy, now against USD, netting the synthetic leg.
	if original.Side != Buy || original.Pair != "WECO-USD" {
		t.Errorf("original leg = %s %s, want buy WECO-USD", original.Side, original.Pair)
	}
	if !original.Funds.Equal(USD(-1.68)) {
		t.Errorf("original Funds = %s, want -1.68", original.Funds)
	}
	if !original.Fee.IsZero() {
		t.Errorf("original Fee = %s, want 0", original.Fee)
	}

	// The two legs net to zero: economic size preserved.
	if net := original.Funds.Add(synthetic.Funds); !net.IsZero() {
		t.Errorf("legs net to %s, want 0", net)
	}
}

func TestUnify_SwapSellSide(t *testing.T) {
	// Selling CHNG for USDT: the synthetic leg is a buy of USDT... which is
	// a crypto quote, so the original sell itself is decomposed.
	unifier := NewUnifier("USD", fixedRates{}, fixedHistory{
		"USDT": {Open: USD(1), Close: USD(1)},
	})
	e := NewEvent(at("2024-02-14 21:05:00"), "CHNG-USDT", Sell, Q(34210), M(2800, "USDT"), M(0, "USDT"), "Chainge")
	out, err := unifier.Unify([]Event{e})
	if err != nil {
		t.Fatalf("Unify() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d events, want 2", len(out))
	}
	for _, ev := range out {
		switch ev.Pair.Base() {
		case "CHNG":
			if ev.Side != Sell || !ev.Funds.Equal(USD(2800)) {
				t.Errorf("CHNG leg = %s %s, want sell +2800", ev.Side, ev.Funds)
			}
		case "USDT":
			if ev.Side != Buy || !ev.Funds.Equal(USD(-2800)) {
				t.Errorf("USDT leg = %s %s, want buy -2800", ev.Side, ev.Funds)
			}
		}
	}
}

func TestUnify_MissingPrice(t *testing.T) {
	e := NewEvent(at("2024-01-01 10:00:00"), "WECO-XYZ", Buy, Q(100), M(1, "XYZ"), M(0, "XYZ"), "test")
	_, err := testUnifier().Unify([]Event{e})
	var missing *MissingPriceDataError
	if !errors.As(err, &missing) {
		t.Fatalf("Unify() error = %v, want MissingPriceDataError", err)
	}
	if missing.Symbol != "XYZ" {
		t.Errorf("missing symbol = %s, want XYZ", missing.Symbol)
	}
}

func TestUnify_ThirdAssetFee(t *testing.T) {
	// A USD pair whose fee was paid in ETH: the fee alone is converted at
	// the ETH mid price (2100).
	e := NewEvent(at("2024-01-01 10:00:00"), "BTC-USD", Buy, Q(1), USD(40000), M(0.01, "ETH"), "test")
	out, err := testUnifier().Unify([]Event{e})
	if err != nil {
		t.Fatalf("Unify() error = %v", err)
	}
	if !out[0].Fee.Equal(USD(21)) {
		t.Errorf("Fee = %s, want 21", out[0].Fee)
	}
	if !out[0].Funds.Equal(USD(-40000)) {
		t.Errorf("Funds = %s, want -40000 unchanged", out[0].Funds)
	}
}
