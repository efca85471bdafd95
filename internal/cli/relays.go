package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"relaymark/internal/storage"
	"relaymark/internal/storage/models"
)

var relaysCmd = &cobra.Command{
	Use:   "relays",
	Short: "List cached relays",
	Long: `List relays from the local directory cache.

Use "relaymark sync" (or any probe run) to refresh the cache first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		country, _ := cmd.Flags().GetString("country")
		relayType, _ := cmd.Flags().GetString("type")
		all, _ := cmd.Flags().GetBool("all")
		search, _ := cmd.Flags().GetString("search")

		filter := storage.RelayFilter{SearchTerm: search}
		if country != "" {
			filter.CountryCode = &country
		}
		if relayType != "" {
			filter.Type = &relayType
		}
		if !all {
			active := true
			filter.Active = &active
		}

		relays, err := appInstance.Storage.GetAllRelays(ctx, filter)
		if err != nil {
			return err
		}
		if len(relays) == 0 {
			fmt.Println("No cached relays. Run \"relaymark sync\" first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "HOSTNAME\tTYPE\tLOCATION\tIPV4\tSPEED\tOWNED\tACTIVE")
		fmt.Fprintln(w, "--------\t----\t--------\t----\t-----\t-----\t------")
		for _, r := range relays {
			speed := "-"
			if r.NetworkPortSpeed > 0 {
				speed = fmt.Sprintf("%dGbps", r.NetworkPortSpeed)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\t%t\n",
				r.Hostname, r.Type, r.Location(), r.IPv4AddrIn, speed, r.Owned, r.Active)
		}
		w.Flush()

		fmt.Printf("\n%d relays", len(relays))
		if last := appInstance.Directory.LastSync(ctx); !last.IsZero() {
			fmt.Printf(" (directory synced %s)", last.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the relay directory cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		result, err := appInstance.Directory.Sync(ctx)
		if err != nil {
			return err
		}

		wireguard := models.TypeWireGuard
		active := true
		candidates, _ := appInstance.Storage.GetAllRelays(ctx, storage.RelayFilter{
			Type: &wireguard, Active: &active,
		})

		fmt.Printf("Synced %d relays (%d active WireGuard candidates)\n",
			result.Stored, len(candidates))
		return nil
	},
}

func init() {
	relaysCmd.Flags().StringP("country", "c", "", "filter by country code")
	relaysCmd.Flags().String("type", "", "filter by relay type (wireguard, openvpn, bridge)")
	relaysCmd.Flags().Bool("all", false, "include inactive relays")
	relaysCmd.Flags().String("search", "", "search hostname, city, or country")

	rootCmd.AddCommand(relaysCmd)
	rootCmd.AddCommand(syncCmd)
}
