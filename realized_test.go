package coinfolio

import (
	"errors"
	"math"
	"testing"
)

func TestAssetProfits_FIFO(t *testing.T) {
	// Two lots, one sell crossing the lot boundary: lot 1 fully consumed,
	// 40% of lot 2 consumed.
	events := []Event{
		buy("2024-01-01 10:00:00", "BTC", 100, -1000),
		buy("2024-02-01 10:00:00", "BTC", 50, -600),
		sell("2024-03-01 10:00:00", "BTC", 120, 1500),
	}

	records, residual, err := AssetProfits("BTC", events, DefaultTaxRule)
	if err != nil {
		t.Fatalf("AssetProfits() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	r := records[0]
	if !r.FundsPaid.Equal(USD(-1240)) {
		t.Errorf("FundsPaid = %s, want -1240", r.FundsPaid)
	}
	if !r.FundsReceived.Equal(USD(1500)) {
		t.Errorf("FundsReceived = %s, want 1500", r.FundsReceived)
	}
	if !r.ProfitLoss.Equal(USD(260)) {
		t.Errorf("ProfitLoss = %s, want 260", r.ProfitLoss)
	}

	if !residual[0].RemainingSize.IsZero() {
		t.Errorf("lot 1 remaining size = %s, want 0", residual[0].RemainingSize)
	}
	if !residual[0].RemainingCost.IsZero() {
		t.Errorf("lot 1 remaining cost = %s, want 0", residual[0].RemainingCost)
	}
	if !residual[1].RemainingSize.Equal(Q(30)) {
		t.Errorf("lot 2 remaining size = %s, want 30", residual[1].RemainingSize)
	}
	if !residual[1].RemainingCost.Equal(USD(-360)) {
		t.Errorf("lot 2 remaining cost = %s, want -360", residual[1].RemainingCost)
	}
}

func TestAssetProfits_EndToEnd(t *testing.T) {
	// Ledger from the scenario: two 1 BTC buys, one 1.5 BTC sell. Lot 1
	// fully consumed, lot 2 half consumed.
	events := []Event{
		buy("2024-01-01 00:00:00", "BTC", 1, -10000),
		buy("2024-02-01 00:00:00", "BTC", 1, -20000),
		sell("2024-03-01 00:00:00", "BTC", 1.5, 25000),
	}

	records, _, err := AssetProfits("BTC", events, DefaultTaxRule)
	if err != nil {
		t.Fatalf("AssetProfits() error = %v", err)
	}
	r := records[0]
	if !r.FundsPaid.Equal(USD(-20000)) {
		t.Errorf("FundsPaid = %s, want -20000", r.FundsPaid)
	}
	if !r.ProfitLoss.Equal(USD(5000)) {
		t.Errorf("ProfitLoss = %s, want 5000", r.ProfitLoss)
	}
	// Everything is short-held, so the whole profit is taxable.
	if !r.Taxable.Equal(USD(5000)) {
		t.Errorf("Taxable = %s, want 5000", r.Taxable)
	}
}

func TestAssetProfits_ExactLotAttribution(t *testing.T) {
	// The sale price 10000/3 does not terminate in decimal. The boundary lot
	// takes the remainder of the proceeds, so the taxable sum must still
	// equal the profit exactly, not just within tolerance.
	events := []Event{
		buy("2024-01-01 00:00:00", "BTC", 1, -1000),
		buy("2024-02-01 00:00:00", "BTC", 2, -2000),
		sell("2024-03-01 00:00:00", "BTC", 3, 10000),
	}
	records, _, err := AssetProfits("BTC", events, DefaultTaxRule)
	if err != nil {
		t.Fatalf("AssetProfits() error = %v", err)
	}
	r := records[0]
	if !r.ProfitLoss.Equal(USD(7000)) {
		t.Errorf("ProfitLoss = %s, want exactly 7000", r.ProfitLoss)
	}
	// Both lots are short-held: the taxable amount is the whole profit.
	if !r.Taxable.Equal(r.ProfitLoss) {
		t.Errorf("Taxable = %s, want exactly ProfitLoss %s", r.Taxable, r.ProfitLoss)
	}
}

func TestAssetProfits_HoldingPeriod(t *testing.T) {
	// A lot held 517 days: its gain is tax free.
	events := []Event{
		buy("2024-01-01 00:00:00", "BTC", 1, -10000),
		sell("2025-06-01 00:00:00", "BTC", 1, 15000),
	}
	records, _, err := AssetProfits("BTC", events, DefaultTaxRule)
	if err != nil {
		t.Fatalf("AssetProfits() error = %v", err)
	}
	if !records[0].Taxable.IsZero() {
		t.Errorf("Taxable = %s, want 0 (held 517 days)", records[0].Taxable)
	}

	// Same holding period, but a loss: always taxable.
	events = []Event{
		buy("2024-01-01 00:00:00", "BTC", 1, -10000),
		sell("2025-06-01 00:00:00", "BTC", 1, 4000),
	}
	records, _, err = AssetProfits("BTC", events, DefaultTaxRule)
	if err != nil {
		t.Fatalf("AssetProfits() error = %v", err)
	}
	if !records[0].Taxable.Equal(USD(-6000)) {
		t.Errorf("Taxable = %s, want -6000 (losses always count)", records[0].Taxable)
	}

	// Held 152 days: taxable.
	events = []Event{
		buy("2024-01-01 00:00:00", "BTC", 1, -10000),
		sell("2024-06-01 00:00:00", "BTC", 1, 15000),
	}
	records, _, err = AssetProfits("BTC", events, DefaultTaxRule)
	if err != nil {
		t.Fatalf("AssetProfits() error = %v", err)
	}
	if !records[0].Taxable.Equal(USD(5000)) {
		t.Errorf("Taxable = %s, want 5000 (held 152 days)", records[0].Taxable)
	}
}

func TestAssetProfits_Oversold(t *testing.T) {
	events := []Event{
		buy("2024-01-01 00:00:00", "BTC", 1, -10000),
		sell("2024-02-01 00:00:00", "BTC", 2, 40000),
	}
	_, _, err := AssetProfits("BTC", events, DefaultTaxRule)
	var inconsistency *DataInconsistencyError
	if !errors.As(err, &inconsistency) {
		t.Fatalf("AssetProfits() error = %v, want DataInconsistencyError", err)
	}
	if !inconsistency.Sold.Equal(Q(2)) || !inconsistency.Available.Equal(Q(1)) {
		t.Errorf("error = %v, want sold 2 available 1", inconsistency)
	}
}

func TestAssetProfits_SellBeforeBuyLot(t *testing.T) {
	// The second buy happens after the sell: it cannot cover it.
	events := []Event{
		buy("2024-01-01 00:00:00", "BTC", 1, -10000),
		sell("2024-02-01 00:00:00", "BTC", 2, 40000),
		buy("2024-03-01 00:00:00", "BTC", 5, -50000),
	}
	_, _, err := AssetProfits("BTC", events, DefaultTaxRule)
	var inconsistency *DataInconsistencyError
	if !errors.As(err, &inconsistency) {
		t.Fatalf("AssetProfits() error = %v, want DataInconsistencyError", err)
	}
}

func TestAssetProfits_SameInstantBuyCoversSell(t *testing.T) {
	// A buy at the very same timestamp is available to the sell.
	events := []Event{
		buy("2024-01-01 10:00:00", "BTC", 1, -10000),
		sell("2024-01-01 10:00:00", "BTC", 1, 12000),
	}
	records, _, err := AssetProfits("BTC", events, DefaultTaxRule)
	if err != nil {
		t.Fatalf("AssetProfits() error = %v", err)
	}
	if !records[0].ProfitLoss.Equal(USD(2000)) {
		t.Errorf("ProfitLoss = %s, want 2000", records[0].ProfitLoss)
	}
}

func TestAssetProfits_SuccessiveSellsMonotonicity(t *testing.T) {
	events := []Event{
		buy("2024-01-01 00:00:00", "BTC", 10, -10000),
		buy("2024-01-02 00:00:00", "BTC", 10, -20000),
		sell("2024-02-01 00:00:00", "BTC", 5, 7500),
		sell("2024-03-01 00:00:00", "BTC", 8, 16000),
		sell("2024-04-01 00:00:00", "BTC", 7, 21000),
	}
	records, residual, err := AssetProfits("BTC", events, DefaultTaxRule)
	if err != nil {
		t.Fatalf("AssetProfits() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	// All 20 BTC sold: every lot must be exhausted.
	for i, lot := range residual {
		if !lot.RemainingSize.IsZero() {
			t.Errorf("lot %d remaining size = %s, want 0", i, lot.RemainingSize)
		}
		if !lot.RemainingCost.IsZero() {
			t.Errorf("lot %d remaining cost = %s, want 0", i, lot.RemainingCost)
		}
	}

	// Sell 1 takes 5 from lot 1 (cost -5000). Sell 2 takes the last 5 of
	// lot 1 (-5000) and 3 of lot 2 (-6000). Sell 3 takes the last 7 (-14000).
	wantPaid := []float64{-5000, -11000, -14000}
	for i, w := range wantPaid {
		if !records[i].FundsPaid.Equal(USD(w)) {
			t.Errorf("sell %d FundsPaid = %s, want %v", i+1, records[i].FundsPaid, w)
		}
	}
}

func TestAssetProfits_Conservation(t *testing.T) {
	// Awkward decimal splits: conservation must hold within tolerance for
	// every sell.
	events := []Event{
		buy("2024-01-01 00:00:00", "ETH", 0.76384081, -1187.33),
		buy("2024-01-15 00:00:00", "ETH", 1.13371713, -2034.77),
		sell("2024-05-01 00:00:00", "ETH", 1.1, 3456.78),
		sell("2024-06-01 00:00:00", "ETH", 0.5, 1650.01),
	}
	records, _, err := AssetProfits("ETH", events, DefaultTaxRule)
	if err != nil {
		t.Fatalf("AssetProfits() error = %v", err)
	}
	for i, r := range records {
		got := r.FundsPaid.Add(r.FundsReceived)
		if diff := math.Abs(got.Sub(r.ProfitLoss).AsFloat()); diff > 1e-9 {
			t.Errorf("sell %d: paid+received differs from profit by %g", i+1, diff)
		}
	}
}

func TestRealizedProfits_NoSellAsset(t *testing.T) {
	events := []Event{
		buy("2024-01-01 00:00:00", "BTC", 1, -10000),
		buy("2024-02-01 00:00:00", "WECO", 6486, -50),
		sell("2024-03-01 00:00:00", "BTC", 1, 12000),
	}
	report := RealizedProfits(events, DefaultTaxRule)

	if len(report.Records) != 1 {
		t.Fatalf("got %d records, want 1 (WECO has no sell)", len(report.Records))
	}
	if report.Records[0].Asset != "BTC" {
		t.Errorf("record asset = %s, want BTC", report.Records[0].Asset)
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != "WECO" {
		t.Errorf("Skipped = %v, want [WECO]", report.Skipped)
	}
}

func TestRealizedProfits_AssetIsolation(t *testing.T) {
	// An oversold ETH position must not abort the BTC computation.
	events := []Event{
		buy("2024-01-01 00:00:00", "BTC", 1, -10000),
		sell("2024-02-01 00:00:00", "BTC", 1, 12000),
		sell("2024-02-01 00:00:00", "ETH", 3, 9000),
	}
	report := RealizedProfits(events, DefaultTaxRule)

	if len(report.Records) != 1 || report.Records[0].Asset != "BTC" {
		t.Fatalf("Records = %v, want the BTC record only", report.Records)
	}
	var inconsistency *DataInconsistencyError
	if !errors.As(report.Failed["ETH"], &inconsistency) {
		t.Errorf("Failed[ETH] = %v, want DataInconsistencyError", report.Failed["ETH"])
	}
}

func TestRealizedProfits_Deterministic(t *testing.T) {
	events := []Event{
		buy("2024-01-01 00:00:00", "BTC", 2, -20000),
		sell("2024-02-01 00:00:00", "BTC", 1, 15000),
		sell("2024-03-01 00:00:00", "BTC", 0.5, 8000),
	}
	a := RealizedProfits(events, DefaultTaxRule)
	b := RealizedProfits(events, DefaultTaxRule)
	if len(a.Records) != len(b.Records) {
		t.Fatalf("replaying the ledger changed the record count")
	}
	for i := range a.Records {
		if !a.Records[i].ProfitLoss.Equal(b.Records[i].ProfitLoss) {
			t.Errorf("record %d differs between passes", i)
		}
	}
}
