package etherscan

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/etnz/coinfolio"
)

// stubExplorer fakes the API with a fixed transfer graph keyed by address.
func stubExplorer(t *testing.T, graph map[string][]rawTransfer) *Explorer {
	t.Helper()
	e := &Explorer{
		CacheDir:  filepath.Join(t.TempDir(), "explorer"),
		wallets:   map[string]bool{},
		blacklist: map[string]bool{},
	}
	e.client = &fetchClient{stub: func(addr string) ([]rawTransfer, error) {
		for address, transfers := range graph {
			if strings.Contains(addr, "address="+address+"&") {
				return transfers, nil
			}
		}
		return nil, nil
	}}
	return e
}

func tf(from, to string) rawTransfer {
	return rawTransfer{
		TimeStamp:    "1700000000",
		Hash:         "0xhash",
		From:         from,
		To:           to,
		Value:        "1000000000000000000",
		TokenSymbol:  "WECO",
		TokenDecimal: "18",
	}
}

func TestDiscover(t *testing.T) {
	// 0xa sent to 0xb, 0xb sent to 0xc. 0xdead has too many transfers.
	var busy []rawTransfer
	for range contractThreshold + 1 {
		busy = append(busy, tf("0xdead", "0xelse"))
	}
	graph := map[string][]rawTransfer{
		"0xa":    {tf("0xa", "0xb")},
		"0xb":    {tf("0xa", "0xb"), tf("0xb", "0xc"), tf("0xb", "0xdead")},
		"0xc":    {tf("0xb", "0xc")},
		"0xdead": busy,
	}
	e := stubExplorer(t, graph)

	wallets, err := e.Discover("0xA")
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	want := []string{"0xa", "0xb", "0xc"}
	if !slices.Equal(wallets, want) {
		t.Errorf("Discover() = %v, want %v", wallets, want)
	}
	if !e.blacklist["0xdead"] {
		t.Error("busy address was not blacklisted")
	}

	// Discovered sets are persisted for the next run.
	content, err := os.ReadFile(filepath.Join(e.CacheDir, walletsFile))
	if err != nil {
		t.Fatalf("wallets file not written: %v", err)
	}
	if got := strings.TrimSpace(string(content)); got != "0xa\n0xb\n0xc" {
		t.Errorf("wallets file = %q", got)
	}
}

func TestDiscover_SkipsKnown(t *testing.T) {
	e := stubExplorer(t, nil)
	e.blacklist["0xdead"] = true
	calls := 0
	inner := e.client.stub
	e.client.stub = func(addr string) ([]rawTransfer, error) {
		calls++
		return inner(addr)
	}
	if _, err := e.Discover("0xdead"); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("blacklisted address was queried %d times", calls)
	}
}

func TestTransfer_Amounts(t *testing.T) {
	r := tf("0xa", "0xb")
	r.GasUsed = "21000"
	r.GasPrice = "50000000000" // 50 gwei

	got, err := r.transfer("0xA")
	if err != nil {
		t.Fatalf("transfer() error = %v", err)
	}
	if !got.Amount.Equal(coinfolio.Q(1)) {
		t.Errorf("Amount = %s, want 1 (18 decimals shifted)", got.Amount)
	}
	// Sender pays the gas: 21000 * 50 gwei = 0.00105 ETH.
	if !got.Fee.Equal(coinfolio.Q(0.00105)) {
		t.Errorf("Fee = %s, want 0.00105", got.Fee)
	}
	if got.Time.String() != "2023-11-14 22:13:20" {
		t.Errorf("Time = %s", got.Time)
	}

	// The recipient pays no gas.
	got, err = r.transfer("0xb")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Fee.IsZero() {
		t.Errorf("recipient Fee = %s, want 0", got.Fee)
	}
}
