package coinfolio

import (
	"fmt"
	"math"
	"sort"
)

// PortfolioRow is the aggregate position of one asset: everything ever paid
// for it, what was realized by selling, and what the remainder is worth at
// the current market price.
type PortfolioRow struct {
	Asset string

	// TotalFunds is the sum of all buy order funds (negative).
	TotalFunds Money
	// LeftFunds is what remains invested after profit taking, the total buy
	// funds minus the cost basis consumed by sells.
	LeftFunds Money

	FundsPaid     Money
	FundsReceived Money
	ProfitLoss    Money
	Taxable       Money

	// XRealized is |FundsReceived / FundsPaid|, the realized multiple.
	// Zero when nothing was sold.
	XRealized   float64
	PctRealized Percent

	// Size is the net position size over all events.
	Size         Quantity
	CurrentPrice Money
	CurrentValue Money
	FullySold    bool

	// XCurrent is |CurrentValue / LeftFunds|, the unrealized multiple on
	// the remaining position. Zero when nothing is left invested.
	XCurrent   float64
	PctCurrent Percent

	Fees Money
}

// fullySoldThreshold is the current value below which a position counts as
// dust rather than a holding.
const fullySoldThreshold = 0.1

// KeyInfo is the one-glance summary of the whole portfolio.
type KeyInfo struct {
	TotalInvested  Money // money still at work, |sum of left funds|
	TotalValue     Money // current value of all positions
	RealizedProfit Money
	Taxable        Money
	TotalProfit    Money // left funds + current value
	TotalX         float64
}

// BrokerFees is the cost of doing business with one broker.
type BrokerFees struct {
	Broker string
	Funds  Money
	Fees   Money
	// Pct is |Fees / Funds| in percent.
	Pct Percent
}

// PortfolioReport is the full aggregated view over a unified ledger.
type PortfolioReport struct {
	Reference string
	Rows      []PortfolioRow
	Key       KeyInfo
	Fees      []BrokerFees
}

// NewPortfolioReport aggregates a unified event list and its profit report
// into per-asset rows. Current prices come from the spot source; a nil spot
// source leaves prices and values at zero, which keeps the report usable
// offline.
func NewPortfolioReport(reference string, events []Event, profits *ProfitReport, spot SpotSource) (*PortfolioReport, error) {
	report := &PortfolioReport{Reference: reference}

	byAsset := map[string]*PortfolioRow{}
	var order []string
	row := func(asset string) *PortfolioRow {
		r, ok := byAsset[asset]
		if !ok {
			r = &PortfolioRow{
				Asset:         asset,
				TotalFunds:    M(0, reference),
				FundsPaid:     M(0, reference),
				FundsReceived: M(0, reference),
				ProfitLoss:    M(0, reference),
				Taxable:       M(0, reference),
				Fees:          M(0, reference),
			}
			byAsset[asset] = r
			order = append(order, asset)
		}
		return r
	}

	for _, e := range events {
		r := row(e.Pair.Base())
		if e.Side == Buy {
			r.TotalFunds = r.TotalFunds.Add(e.Funds)
		}
		r.Size = r.Size.Add(e.Size)
		r.Fees = r.Fees.Add(e.Fee)
	}

	for _, p := range profits.Records {
		r := row(p.Asset)
		r.FundsPaid = r.FundsPaid.Add(p.FundsPaid)
		r.FundsReceived = r.FundsReceived.Add(p.FundsReceived)
		r.ProfitLoss = r.ProfitLoss.Add(p.ProfitLoss)
		r.Taxable = r.Taxable.Add(p.Taxable)
	}

	for _, asset := range order {
		r := byAsset[asset]
		r.LeftFunds = r.TotalFunds.Sub(r.FundsPaid)

		if spot != nil {
			price, err := spot.Price(asset)
			if err != nil {
				return nil, fmt.Errorf("pricing %s: %w", asset, err)
			}
			r.CurrentPrice = price
			r.CurrentValue = price.Mul(r.Size)
		} else {
			r.CurrentPrice = M(0, reference)
			r.CurrentValue = M(0, reference)
		}
		r.FullySold = r.CurrentValue.AsFloat() < fullySoldThreshold

		if paid := r.FundsPaid.AsFloat(); paid != 0 {
			r.XRealized = math.Abs(r.FundsReceived.AsFloat() / paid)
			r.PctRealized = Percent((r.XRealized - 1) * 100)
		}
		if left := r.LeftFunds.AsFloat(); left != 0 {
			r.XCurrent = math.Abs(r.CurrentValue.AsFloat() / left)
			r.PctCurrent = Percent((r.XCurrent - 1) * 100)
		}
		report.Rows = append(report.Rows, *r)
	}

	report.Key = keyInfo(reference, report.Rows)
	report.Fees = feesPerBroker(reference, events)
	return report, nil
}

func keyInfo(reference string, rows []PortfolioRow) KeyInfo {
	key := KeyInfo{
		TotalInvested:  M(0, reference),
		TotalValue:     M(0, reference),
		RealizedProfit: M(0, reference),
		Taxable:        M(0, reference),
	}
	for _, r := range rows {
		key.TotalInvested = key.TotalInvested.Add(r.LeftFunds)
		key.TotalValue = key.TotalValue.Add(r.CurrentValue)
		key.RealizedProfit = key.RealizedProfit.Add(r.ProfitLoss)
		key.Taxable = key.Taxable.Add(r.Taxable)
	}
	key.TotalProfit = key.TotalInvested.Add(key.TotalValue)
	if invested := math.Abs(key.TotalInvested.AsFloat()); invested != 0 {
		key.TotalX = key.TotalValue.AsFloat() / invested
	}
	key.TotalInvested = key.TotalInvested.Abs()
	return key
}

// feesPerBroker sums funds and fees per broker over the unified events and
// reports the fee drag as a percentage of the traded funds.
func feesPerBroker(reference string, events []Event) []BrokerFees {
	byBroker := map[string]*BrokerFees{}
	for _, e := range events {
		f, ok := byBroker[e.Broker]
		if !ok {
			f = &BrokerFees{Broker: e.Broker, Funds: M(0, reference), Fees: M(0, reference)}
			byBroker[e.Broker] = f
		}
		f.Funds = f.Funds.Add(e.Funds)
		f.Fees = f.Fees.Add(e.Fee)
	}
	fees := make([]BrokerFees, 0, len(byBroker))
	for _, f := range byBroker {
		if funds := f.Funds.AsFloat(); funds != 0 {
			f.Pct = Percent(math.Abs(f.Fees.AsFloat()/funds) * 100)
		}
		fees = append(fees, *f)
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i].Pct < fees[j].Pct })
	return fees
}
