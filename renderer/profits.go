package renderer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/etnz/coinfolio"
)

// ProfitsMarkdown renders the realized profit records of a matching run,
// one row per sell, followed by the assets that could not be processed.
func ProfitsMarkdown(report *coinfolio.ProfitReport, reference string) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Realized Profits\n\n")
	fmt.Fprintln(&b, "| Date | Asset | Funds paid | Funds received | Profit/Loss | To be taxed |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|")
	total := coinfolio.M(0, reference)
	taxable := coinfolio.M(0, reference)
	for _, p := range report.Records {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			p.Time, p.Asset,
			p.FundsPaid.Neg().String(),
			p.FundsReceived,
			p.ProfitLoss.SignedString(),
			p.Taxable.SignedString(),
		)
		total = total.Add(p.ProfitLoss)
		taxable = taxable.Add(p.Taxable)
	}
	fmt.Fprintf(&b, "| **Total** | | | | **%s** | **%s** |\n\n", total.SignedString(), taxable.SignedString())

	if len(report.Skipped) > 0 {
		fmt.Fprintf(&b, "No sell orders yet for: %s.\n\n", strings.Join(report.Skipped, ", "))
	}
	if len(report.Failed) > 0 {
		fmt.Fprint(&b, "## Failed Assets\n\n")
		assets := make([]string, 0, len(report.Failed))
		for asset := range report.Failed {
			assets = append(assets, asset)
		}
		sort.Strings(assets)
		for _, asset := range assets {
			fmt.Fprintf(&b, "- %s: %s\n", asset, report.Failed[asset])
		}
		fmt.Fprintln(&b)
	}
	return b.String()
}
