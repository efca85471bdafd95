package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"relaymark/internal/app"
	"relaymark/internal/directory"
	"relaymark/internal/probe"
	"relaymark/internal/tui"
)

const defaultResultCount = 10

var (
	appInstance *app.App
	version     = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "relaymark [count]",
	Short: "Rank Mullvad VPN relays by measured latency",
	Long: `Rank Mullvad VPN relays by measured latency.

  Fetches the public relay directory, probes every active WireGuard relay
  with concurrent TCP handshakes to port 443, and shows the fastest ones.

  Quick start:
    relaymark              # top 10 fastest relays
    relaymark 25           # top 25
    relaymark --country se # only Swedish relays
    relaymark history se-sto-wg-001

  Results are cached in a local SQLite database so "relays" and "history"
  work offline.`,
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		appInstance, err = app.New()
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if appInstance != nil {
			return appInstance.Close()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		maxResults := defaultResultCount
		if len(args) > 0 {
			maxResults = parseResultCount(args[0], os.Stderr)
		}

		workers, _ := cmd.Flags().GetInt64("workers")
		timeoutMS, _ := cmd.Flags().GetInt64("timeout")
		samples, _ := cmd.Flags().GetInt("samples")
		port, _ := cmd.Flags().GetInt("port")
		partial, _ := cmd.Flags().GetBool("partial")
		country, _ := cmd.Flags().GetString("country")
		cached, _ := cmd.Flags().GetBool("cached")
		plain, _ := cmd.Flags().GetBool("plain")

		// Load defaults from DB settings if not overridden
		if !cmd.Flags().Changed("workers") {
			if val, err := appInstance.Storage.GetSetting(ctx, "probe_workers"); err == nil {
				if parsed, parseErr := strconv.ParseInt(val, 10, 64); parseErr == nil {
					workers = parsed
				}
			}
		}
		if !cmd.Flags().Changed("timeout") {
			if val, err := appInstance.Storage.GetSetting(ctx, "probe_timeout_ms"); err == nil {
				if parsed, parseErr := strconv.ParseInt(val, 10, 64); parseErr == nil {
					timeoutMS = parsed
				}
			}
		}
		if !cmd.Flags().Changed("samples") {
			if val, err := appInstance.Storage.GetSetting(ctx, "probe_samples"); err == nil {
				if parsed, parseErr := strconv.Atoi(val); parseErr == nil {
					samples = parsed
				}
			}
		}

		filter := directory.DefaultFilter()
		filter.CountryCode = country

		relays, err := appInstance.Directory.Candidates(ctx, filter, cached)
		if err != nil {
			return err
		}
		if len(relays) == 0 {
			fmt.Println("No relays matched the filter.")
			return nil
		}
		fmt.Printf("Found %d active WireGuard relays\n", len(relays))

		prober := probe.NewProber(appInstance.Storage, probe.ProberConfig{
			Workers:      workers,
			Timeout:      time.Duration(timeoutMS) * time.Millisecond,
			Samples:      samples,
			Port:         port,
			AllowPartial: partial,
		})

		var batch *probe.BatchResult
		if plain || !isatty.IsTerminal(os.Stdout.Fd()) {
			batch = prober.ProbeBatch(ctx, relays, func(o *probe.Outcome, current, total int) {
				fmt.Printf("\rprobing: %d/%d", current, total)
			})
			fmt.Println()
		} else {
			batch, err = tui.RunProbe(ctx, prober, relays)
			if err != nil {
				return err
			}
			if batch == nil {
				fmt.Println("Aborted.")
				return nil
			}
		}

		ranked := probe.Rank(batch.Outcomes, maxResults)
		renderResults(os.Stdout, ranked, batch)
		return nil
	},
}

// parseResultCount parses the optional positional result count, falling
// back to the default with a warning on invalid input rather than failing.
func parseResultCount(arg string, warn io.Writer) int {
	parsed, err := strconv.Atoi(arg)
	if err != nil || parsed <= 0 {
		fmt.Fprintf(warn, "warning: invalid result count %q, using default %d\n",
			arg, defaultResultCount)
		return defaultResultCount
	}
	return parsed
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Int64P("workers", "w", 10, "number of concurrent probes")
	rootCmd.Flags().Int64P("timeout", "t", 2000, "per-attempt timeout in milliseconds")
	rootCmd.Flags().IntP("samples", "s", 3, "connection attempts per relay")
	rootCmd.Flags().Int("port", 443, "target port for the TCP handshake")
	rootCmd.Flags().Bool("partial", false, "average over successful attempts instead of discarding the relay on the first failure")
	rootCmd.Flags().StringP("country", "c", "", "only probe relays in this country code")
	rootCmd.Flags().Bool("cached", false, "probe the cached directory without refetching it")
	rootCmd.Flags().Bool("plain", false, "disable the live progress display")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("relaymark %s\n", version)
	},
}
