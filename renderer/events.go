package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/coinfolio"
)

// EventsMarkdown renders a chronological table of trade events.
func EventsMarkdown(events []coinfolio.Event) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Events\n\n")
	if len(events) == 0 {
		fmt.Fprintln(&b, "No events recorded yet.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Datetime | Pair | Side | Size | Funds | Fee | Broker |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|---:|:---|")
	for _, e := range events {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			e.Time, e.Pair, e.Side, e.Size, e.Funds, e.Fee, e.Broker)
	}
	fmt.Fprintln(&b)

	return b.String()
}
