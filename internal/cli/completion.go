package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"relaymark/internal/app"
	"relaymark/internal/storage"
)

// ensureApp lazily initializes appInstance for shell completion.
// Cobra may invoke ValidArgsFunction without running PersistentPreRunE.
func ensureApp() error {
	if appInstance != nil {
		return nil
	}
	var err error
	appInstance, err = app.New()
	return err
}

// completeRelayHostnames provides shell completion for relay hostnames.
func completeRelayHostnames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	if err := ensureApp(); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	ctx := context.Background()
	relays, err := appInstance.Storage.GetAllRelays(ctx, storage.RelayFilter{})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var completions []string
	for _, relay := range relays {
		if strings.HasPrefix(strings.ToLower(relay.Hostname), strings.ToLower(toComplete)) {
			completions = append(completions, relay.Hostname)
		}
	}

	return completions, cobra.ShellCompDirectiveNoFileComp
}
