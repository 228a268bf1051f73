package cmd

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/relayproj/relay/frontend/cli/pkg/terminal"
	"github.com/relayproj/relay/shared/keyring"
)

func newAuthCmd(app *appState) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored provider credentials",
	}

	authCmd.AddCommand(newAuthSetKeyCmd(app), newAuthDeleteKeyCmd(app))
	return authCmd
}

func newAuthSetKeyCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "set-key <provider> <api-key>",
		Short: "Store a provider API key in the system keyring",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, key := args[0], args[1]
			if err := validateProviderName(name); err != nil {
				return err
			}
			if key == "" {
				return fmt.Errorf("API key must not be empty")
			}

			if err := app.secrets.Set(name, key); err != nil {
				return fmt.Errorf("failed to store key for %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Stored API key for %s\n", terminal.SuccessSymbol, name)
			return nil
		},
	}
}

func newAuthDeleteKeyCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-key <provider>",
		Short: "Remove a provider API key from the system keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := validateProviderName(name); err != nil {
				return err
			}

			if err := app.secrets.Delete(name); err != nil {
				if errors.Is(err, &keyring.ErrSecretNotFound{}) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s No stored key for %s\n", terminal.InfoSymbol, name)
					return nil
				}
				return fmt.Errorf("failed to delete key for %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted API key for %s\n", terminal.SuccessSymbol, name)
			return nil
		},
	}
}

func validateProviderName(name string) error {
	if !slices.Contains(knownProviders, name) {
		return fmt.Errorf("unknown provider %q, valid providers are: %v", name, knownProviders)
	}
	return nil
}
