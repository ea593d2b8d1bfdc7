package broker

import (
	"errors"
	"strings"
	"testing"

	"github.com/etnz/coinfolio"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"exports/transactions/kucoin_2023.csv", "KuCoin"},
		{"mexc-export.csv", "MEXC"},
		{"Bitvavo/trades.csv", ""}, // broker name must be in the file name
		{"bitvavo_trades.csv", "Bitvavo"},
		{"BISON_transactions.csv", "Bison"},
		{"bitget_spot.csv", "Bitget"},
	}
	for _, c := range cases {
		a, err := Detect(c.path)
		if c.want == "" {
			var unsupported *coinfolio.UnsupportedBrokerError
			if !errors.As(err, &unsupported) {
				t.Errorf("Detect(%q) = %v, want UnsupportedBrokerError", c.path, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Detect(%q) error = %v", c.path, err)
			continue
		}
		if a.Name() != c.want {
			t.Errorf("Detect(%q) = %s, want %s", c.path, a.Name(), c.want)
		}
	}
}

func TestKuCoin(t *testing.T) {
	// Two fills of the same order plus a separate sell.
	csv := `tradeCreatedAt,symbol,side,size,funds,fee
2023-05-01 10:00:00,BTC-USDT,buy,0.5,13000,13
2023-05-01 10:00:00,BTC-USDT,buy,0.5,13100,13.1
2023-08-01 09:30:00,BTC-USDT,sell,0.2,6000,6
`
	events, err := KuCoin{}.Transactions(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (fills merged)", len(events))
	}

	buy := events[0]
	if buy.Side != coinfolio.Buy || buy.Pair != "BTC-USDT" {
		t.Fatalf("first event = %s %s, want buy BTC-USDT", buy.Side, buy.Pair)
	}
	if !buy.Size.Equal(coinfolio.Q(1.0)) {
		t.Errorf("merged Size = %s, want 1", buy.Size)
	}
	if !buy.Funds.Equal(coinfolio.M(-26100, "USDT")) {
		t.Errorf("merged Funds = %s, want -26100", buy.Funds)
	}
	if !buy.Fee.Equal(coinfolio.M(26.1, "USDT")) {
		t.Errorf("merged Fee = %s, want 26.1", buy.Fee)
	}
	if buy.Broker != "KuCoin" {
		t.Errorf("Broker = %s, want KuCoin", buy.Broker)
	}

	sell := events[1]
	if !sell.Size.Equal(coinfolio.Q(-0.2)) || !sell.Funds.Equal(coinfolio.M(6000, "USDT")) {
		t.Errorf("sell = %s %s, want -0.2 / +6000", sell.Size, sell.Funds)
	}
}

func TestMEXC_Latin1(t *testing.T) {
	// The export is latin-1 encoded: \xfc is "ü" in Gebühr and Ausgeführter.
	csv := "Zeit;Paare;Seite;Ausgef\xfchrter Betrag;Gesamt;Geb\xfchr\n" +
		"2023-05-01 10:00:00;MX_USDT;BUY;100;250;0.25\n"
	events, err := MEXC{}.Transactions(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.Pair != "MX-USDT" {
		t.Errorf("Pair = %s, want MX-USDT", e.Pair)
	}
	if !e.Funds.Equal(coinfolio.M(-250, "USDT")) {
		t.Errorf("Funds = %s, want -250", e.Funds)
	}
}

func TestBitvavo(t *testing.T) {
	csv := `Date,Time,Currency,Type,Amount,EUR received / paid,Fee amount
2021-02-25,20:06:29.123,BTC,buy,0.0238,-1000,1.5
2021-02-26,08:00:00,EUR,deposit,500,500,0
2021-06-01,12:00:00,BTC,sell,-0.01,500,0.8
`
	events, err := Bitvavo{}.Transactions(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (deposit skipped)", len(events))
	}
	buy := events[0]
	if buy.Pair != "BTC-EUR" {
		t.Errorf("Pair = %s, want BTC-EUR", buy.Pair)
	}
	// The export is already signed.
	if !buy.Funds.Equal(coinfolio.M(-1000, "EUR")) {
		t.Errorf("Funds = %s, want -1000", buy.Funds)
	}
	if buy.Time.String() != "2021-02-25 20:06:29" {
		t.Errorf("Time = %s, want sub-second precision dropped", buy.Time)
	}
}

func TestBison(t *testing.T) {
	// Bison pads its column names and values with whitespace.
	csv := " Date;TransactionType; Asset; Currency; AssetAmount; EurAmount; Fee\n" +
		"2021-02-25 20:06:29;Buy; btc; eur; 0.0238; 1000; 0\n"
	events, err := Bison{}.Transactions(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.Pair != "BTC-EUR" {
		t.Errorf("Pair = %s, want BTC-EUR", e.Pair)
	}
	if !e.Funds.Equal(coinfolio.M(-1000, "EUR")) {
		t.Errorf("Funds = %s, want -1000 (sign applied)", e.Funds)
	}
}

func TestBitget(t *testing.T) {
	csv := `Date,Trading pair,Direction,Price,Amount,Total,Fee
2023-05-01 10:00:00,BTCUSDT_SPBL,Buy,26000,0.5,13000,-0.0005
`
	events, err := Bitget{}.Transactions(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	e := events[0]
	if e.Pair != "BTC-USDT" {
		t.Errorf("Pair = %s, want BTC-USDT", e.Pair)
	}
	// Fee charged in the base asset, converted at the row price.
	if !e.Fee.Equal(coinfolio.M(13, "USDT")) {
		t.Errorf("Fee = %s, want 13", e.Fee)
	}
	if !e.Funds.Equal(coinfolio.M(-13000, "USDT")) {
		t.Errorf("Funds = %s, want -13000", e.Funds)
	}
}
