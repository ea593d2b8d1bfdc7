package coinfolio

import (
	"fmt"
	"math"
	"slices"

	"github.com/etnz/coinfolio/date"
)

// TaxRule parameterizes the holding-period rule: gains on lots held no
// longer than HoldingDays are taxable; losses are always taxable.
type TaxRule struct {
	HoldingDays int
}

// DefaultTaxRule is the German short-term capital-gains rule: crypto gains
// are tax free after one year.
var DefaultTaxRule = TaxRule{HoldingDays: 365}

// conservationTolerance is the relative tolerance for the per-sell
// conservation check.
const conservationTolerance = 1e-9

// RealizedProfit is the outcome of one sell event: the cost basis consumed
// from earlier buy lots, the sale proceeds, and the tax-relevant share of
// the difference.
type RealizedProfit struct {
	Time          date.Datetime
	Asset         string
	FundsPaid     Money // <= 0, cost basis consumed
	FundsReceived Money // >= 0, sale proceeds
	ProfitLoss    Money // FundsPaid + FundsReceived
	Taxable       Money // gains on short-held lots plus all losses
}

// ProfitReport is the output of a full matching pass over a unified ledger.
type ProfitReport struct {
	Records  []RealizedProfit
	Residual map[string]Lots  // per asset, lots with their remaining state
	Skipped  []string         // assets with buys but no sell yet
	Failed   map[string]error // assets whose matching failed; others are unaffected
}

// RealizedProfits partitions, per asset, the historical buy lots against the
// later sell events in FIFO order and emits one RealizedProfit per sell.
//
// The input must be a unified event list (every pair quoted in the reference
// currency). Events are not mutated; lot state is derived fresh on every
// call, so replaying the same ledger always yields the same report.
//
// Assets are mutually independent: a DataInconsistencyError on one asset is
// recorded in Failed and does not abort the others.
func RealizedProfits(events []Event, rule TaxRule) *ProfitReport {
	report := &ProfitReport{
		Residual: make(map[string]Lots),
		Failed:   make(map[string]error),
	}

	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, Event.Compare)

	byAsset := make(map[string][]Event)
	var assets []string
	for _, e := range sorted {
		base := e.Pair.Base()
		if _, ok := byAsset[base]; !ok {
			assets = append(assets, base)
		}
		byAsset[base] = append(byAsset[base], e)
	}

	for _, asset := range assets {
		records, residual, err := AssetProfits(asset, byAsset[asset], rule)
		if err != nil {
			report.Failed[asset] = err
			continue
		}
		if records == nil {
			report.Skipped = append(report.Skipped, asset)
		}
		report.Records = append(report.Records, records...)
		report.Residual[asset] = residual
	}
	return report
}

// AssetProfits runs the matching pass for a single asset. The events must
// all share the same base asset and be sorted chronologically with buys
// before sells at the same instant. It returns nil records when the asset
// has no sell event yet.
func AssetProfits(asset string, events []Event, rule TaxRule) ([]RealizedProfit, Lots, error) {
	var open Lots
	var records []RealizedProfit
	sells := 0

	for _, e := range events {
		if e.Side == Buy {
			open = append(open, newLot(e))
			continue
		}
		sells++
		record, err := matchSell(asset, e, open, rule)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, record)
	}

	if sells == 0 {
		return nil, open, nil
	}
	return records, open, nil
}

// matchSell consumes buy lots in FIFO order to cover one sell event and
// emits its realized-profit record, mutating the lots' remaining state for
// subsequent sells.
func matchSell(asset string, sell Event, open Lots, rule TaxRule) (RealizedProfit, error) {
	quantity := sell.Size.Neg() // positive quantity disposed of

	if available := open.available(); available.LessThan(quantity) {
		return RealizedProfit{}, &DataInconsistencyError{
			Asset:     asset,
			Time:      sell.Time,
			Sold:      quantity,
			Available: available,
		}
	}

	price := sell.Price()
	touched := open.consume(quantity)

	fundsPaid := M(0, sell.Funds.Currency())
	taxable := M(0, sell.Funds.Currency())
	profitSum := M(0, sell.Funds.Currency())
	soldSum := M(0, sell.Funds.Currency())
	for i, c := range touched {
		fundsPaid = fundsPaid.Add(c.cost)

		soldValue := price.Mul(c.size)
		// The last touched lot takes the remainder of the proceeds, so the
		// per-lot sold values sum exactly to the sell's funds and division
		// rounding never leaks into the profits.
		if i == len(touched)-1 {
			soldValue = sell.Funds.Sub(soldSum)
		}
		soldSum = soldSum.Add(soldValue)
		profit := soldValue.Add(c.cost)
		profitSum = profitSum.Add(profit)

		heldDays := sell.Time.DaysSince(c.lot.AcquiredAt)
		toBeTaxed := heldDays <= rule.HoldingDays
		// Losses always count against the tax bill; only gains are exempted
		// when held long enough.
		if toBeTaxed || profit.IsNegative() {
			taxable = taxable.Add(profit)
		}
	}

	fundsReceived := sell.Funds
	profitLoss := fundsPaid.Add(fundsReceived)

	// Conservation: paid + received must equal the profit recognized across
	// the touched lots. A violation means the matching itself is defective.
	if diff := math.Abs(profitLoss.Sub(profitSum).AsFloat()); diff > conservationTolerance*math.Max(1, math.Abs(profitLoss.AsFloat())) {
		return RealizedProfit{}, fmt.Errorf("conservation violated for %s at %s: paid %s + received %s != lot profits %s",
			asset, sell.Time, fundsPaid, fundsReceived, profitSum)
	}

	return RealizedProfit{
		Time:          sell.Time,
		Asset:         asset,
		FundsPaid:     fundsPaid,
		FundsReceived: fundsReceived,
		ProfitLoss:    profitLoss,
		Taxable:       taxable,
	}, nil
}
