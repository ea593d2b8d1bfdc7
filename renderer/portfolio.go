// Package renderer formats reports as markdown.
package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/coinfolio"
)

// PortfolioMarkdown renders the full aggregated portfolio view: the key
// figures, one row per asset, and the fee drag per broker.
func PortfolioMarkdown(report *coinfolio.PortfolioReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Portfolio (%s)\n\n", report.Reference)
	renderKeyInfo(&b, report.Key)

	fmt.Fprint(&b, "## Assets\n\n")
	fmt.Fprintln(&b, "| Asset | Left Funds | Realized P/L | x realized | Size | Price | Value | x current |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|---:|---:|")
	for _, r := range report.Rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			r.Asset,
			r.LeftFunds.Neg().String(),
			r.ProfitLoss.SignedString(),
			multiple(r.XRealized),
			r.Size,
			r.CurrentPrice,
			r.CurrentValue,
			multiple(r.XCurrent),
		)
	}
	fmt.Fprintln(&b)

	FeesMarkdown(&b, report.Fees)
	return b.String()
}

func renderKeyInfo(b *strings.Builder, key coinfolio.KeyInfo) {
	fmt.Fprint(b, "## Key Info\n\n")
	fmt.Fprintf(b, "- Total invested money: %s\n", key.TotalInvested)
	fmt.Fprintf(b, "- Total portfolio value: %s\n", key.TotalValue)
	fmt.Fprintf(b, "- Realized profits and losses: %s, to be taxed: %s\n",
		key.RealizedProfit.SignedString(), key.Taxable.SignedString())
	fmt.Fprintf(b, "- Total portfolio profit/loss: %s\n", key.TotalProfit.SignedString())
	fmt.Fprintf(b, "- Total x: %s\n\n", multiple(key.TotalX))
}

// FeesMarkdown renders the fees per broker table, cheapest broker first.
func FeesMarkdown(b *strings.Builder, fees []coinfolio.BrokerFees) {
	if len(fees) == 0 {
		return
	}
	fmt.Fprint(b, "## Fees per Broker\n\n")
	fmt.Fprintln(b, "| Broker | Funds | Fees | Fee/Funds |")
	fmt.Fprintln(b, "|:---|---:|---:|---:|")
	for _, f := range fees {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", f.Broker, f.Funds, f.Fees, f.Pct)
	}
	fmt.Fprintln(b)
}

// multiple formats an investment multiple like "2.5x", or "-" when there is
// no position to measure.
func multiple(x float64) string {
	if x == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1fx", x)
}
