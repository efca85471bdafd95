package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"relaymark/internal/probe"
)

// renderResults prints the ranked table and a recommendation for the
// fastest relay.
func renderResults(out io.Writer, ranked []*probe.Outcome, batch *probe.BatchResult) {
	if len(ranked) == 0 {
		fmt.Fprintln(out, "No valid results - no relay answered all probes.")
		return
	}

	fmt.Fprintf(out, "\nFastest relays:\n")
	fmt.Fprintln(out, strings.Repeat("─", 75))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tHOSTNAME\tLOCATION\tIPV4\tPING\tSPEED\tOWNED\tFEATURES")
	fmt.Fprintln(w, "-\t--------\t--------\t----\t----\t-----\t-----\t--------")

	for i, o := range ranked {
		relay := o.Relay

		speed := "Unknown"
		if relay.NetworkPortSpeed > 0 {
			speed = fmt.Sprintf("%dGbps", relay.NetworkPortSpeed)
		}

		features := "-"
		if f := relay.Features(); len(f) > 0 {
			features = strings.Join(f, ", ")
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.2f ms\t%s\t%t\t%s\n",
			i+1, relay.Hostname, relay.Location(), relay.IPv4AddrIn,
			*o.LatencyMS, speed, relay.Owned, features)
	}
	w.Flush()

	fmt.Fprintf(out, "\nSummary: %d probed, %d reachable, %d unreachable (%.1fs)\n",
		batch.Tested, batch.Succeeded, batch.Failed, batch.Duration.Seconds())

	best := ranked[0]
	fmt.Fprintf(out, "\nRecommended relay: %s in %s\n", best.Relay.Hostname, best.Relay.Location())
	fmt.Fprintf(out, "  IPv4: %s\n", best.Relay.IPv4AddrIn)
	fmt.Fprintf(out, "  Ping: %.2f ms\n", *best.LatencyMS)
	if best.Relay.NetworkPortSpeed > 0 {
		fmt.Fprintf(out, "  Port speed: %d Gbps\n", best.Relay.NetworkPortSpeed)
	}
	fmt.Fprintf(out, "  Owned by Mullvad: %t\n", best.Relay.Owned)
	if f := best.Relay.Features(); len(f) > 0 {
		fmt.Fprintf(out, "  Features: %s\n", strings.Join(f, ", "))
	}
}
