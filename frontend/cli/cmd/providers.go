package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relayproj/relay/frontend/cli/pkg/terminal"
)

func newProvidersCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "list-providers",
		Short: "List providers and whether they are usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := app.buildAuthManager(nil)
			executor := app.buildExecutor(manager, executionConfigFromStored(app.config))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Providers:\n", terminal.InfoSymbol)
			for _, name := range knownProviders {
				if executor.HasProvider(name) {
					fmt.Fprintf(out, "  %s %s\n", terminal.SuccessSymbol, name)
				} else {
					fmt.Fprintf(out, "  %s %s (no credentials)\n", terminal.ErrorSymbol, name)
				}
			}
			return nil
		},
	}
}
