package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relayproj/relay/backend/auth"
	"github.com/relayproj/relay/frontend/cli/pkg/terminal"
)

func newCheckAuthCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "check-auth [provider]",
		Short: "Show how a provider, or every provider, would authenticate",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			providers := knownProviders
			if len(args) == 1 {
				if err := validateProviderName(args[0]); err != nil {
					return err
				}
				providers = args[:1]
			}

			manager := app.buildAuthManager(nil)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Authentication status:\n", terminal.InfoSymbol)
			for _, name := range providers {
				method, err := manager.DetectAuth(name)
				if err != nil {
					var noAuth *auth.NoAuthError
					if errors.As(err, &noAuth) {
						fmt.Fprintf(out, "  %s %s: no credentials found\n", terminal.ErrorSymbol, name)
						continue
					}
					return err
				}
				fmt.Fprintf(out, "  %s %s: %s\n", terminal.SuccessSymbol, name, describeMethod(method))
			}
			return nil
		},
	}
}

func describeMethod(method auth.Method) string {
	switch m := method.(type) {
	case auth.APIKey:
		return "API key"
	case auth.CLIAuth:
		return "local CLI session (not usable for API calls)"
	case auth.BrowserAuth:
		return fmt.Sprintf("browser session via %s", m.CallbackURL)
	case auth.AccountBased:
		return fmt.Sprintf("account session (%s)", m.Provider)
	default:
		return "unknown"
	}
}
