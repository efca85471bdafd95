package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"relaymark/internal/directory"
	"relaymark/internal/probe"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically probe relays and record results",
	Long: `Run as a daemon: refresh the relay directory and probe all candidates
on a fixed interval, recording every measurement to the local database.
Inspect the collected data with "relaymark history <hostname>".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		interval, _ := cmd.Flags().GetDuration("interval")
		syncInterval, _ := cmd.Flags().GetDuration("sync-interval")
		workers, _ := cmd.Flags().GetInt64("workers")
		timeoutMS, _ := cmd.Flags().GetInt64("timeout")
		samples, _ := cmd.Flags().GetInt("samples")
		country, _ := cmd.Flags().GetString("country")

		filter := directory.DefaultFilter()
		filter.CountryCode = country

		prober := probe.NewProber(appInstance.Storage, probe.ProberConfig{
			Workers: workers,
			Timeout: time.Duration(timeoutMS) * time.Millisecond,
			Samples: samples,
		})

		probePass := func() {
			// The scheduler refreshes the directory on its own interval.
			relays, err := appInstance.Directory.Candidates(ctx, filter, true)
			if err != nil {
				log.Printf("Probe pass skipped: %v", err)
				return
			}
			batch := prober.ProbeBatch(ctx, relays, nil)

			ranked := probe.Rank(batch.Outcomes, 1)
			if len(ranked) > 0 {
				log.Printf("Probed %d relays: %d reachable, %d unreachable, fastest %s (%.2f ms)",
					batch.Tested, batch.Succeeded, batch.Failed,
					ranked[0].Relay.Hostname, *ranked[0].LatencyMS)
			} else {
				log.Printf("Probed %d relays: none reachable", batch.Tested)
			}
		}

		scheduler, err := directory.NewScheduler(appInstance.Directory)
		if err != nil {
			return err
		}
		if err := scheduler.Start(ctx, syncInterval); err != nil {
			return err
		}
		defer scheduler.Stop()

		if err := scheduler.ScheduleCustomJob(interval, probePass); err != nil {
			return err
		}

		log.Printf("Watching relays every %s (directory sync every %s)", interval, syncInterval)
		go probePass()

		// Block until interrupted.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down")
		return nil
	},
}

func init() {
	watchCmd.Flags().Duration("interval", 15*time.Minute, "probe interval")
	watchCmd.Flags().Duration("sync-interval", 6*time.Hour, "directory refresh interval")
	watchCmd.Flags().Int64P("workers", "w", 10, "number of concurrent probes")
	watchCmd.Flags().Int64P("timeout", "t", 2000, "per-attempt timeout in milliseconds")
	watchCmd.Flags().IntP("samples", "s", 3, "connection attempts per relay")
	watchCmd.Flags().StringP("country", "c", "", "only probe relays in this country code")

	rootCmd.AddCommand(watchCmd)
}
