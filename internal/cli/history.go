package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:               "history <hostname>",
	Short:             "Show probe history for a relay",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeRelayHostnames,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		limit, _ := cmd.Flags().GetInt("limit")

		relay, err := appInstance.Storage.GetRelayByHostname(ctx, args[0])
		if err != nil {
			return fmt.Errorf("relay not found: %s", args[0])
		}

		history, err := appInstance.Storage.GetProbeHistory(ctx, relay.Hostname, limit)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Printf("No probe history for %s\n", relay.Hostname)
			return nil
		}

		fmt.Printf("Probe History: %s (%s, %s)\n", relay.Hostname, relay.Location(), relay.IPv4AddrIn)
		fmt.Println()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tLATENCY\tSAMPLES\tSTATUS")
		fmt.Fprintln(w, "----\t-------\t-------\t------")

		for _, entry := range history {
			latStr := "N/A"
			statusStr := "FAIL"
			if entry.Success && entry.LatencyMS != nil {
				latStr = fmt.Sprintf("%.2f ms", *entry.LatencyMS)
				statusStr = "OK"
			}
			timeStr := entry.ProbedAt.Format("2006-01-02 15:04:05")
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", timeStr, latStr, entry.Samples, statusStr)
		}
		w.Flush()

		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of history entries")
	rootCmd.AddCommand(historyCmd)
}
