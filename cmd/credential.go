package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/agentdeck/internal/application"
	"github.com/bnema/agentdeck/internal/domain"
	"github.com/spf13/cobra"
)

func newCredentialCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage provider API keys",
	}

	cmd.AddCommand(
		newCredentialSetCmd(app),
		newCredentialRemoveCmd(app),
		newCredentialDefaultCmd(app),
	)

	return cmd
}

func newCredentialSetCmd(app *app) *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "set <agent-id>",
		Short: "Store an API key for an agent, replacing the previous one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := app.agentService.SetCredential(cmd.Context(), domain.AgentID(args[0]), value)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored credential %s\n", ref)
			return err
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "API key")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func newCredentialRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <agent-id>",
		Short: "Remove an agent's API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.agentService.RemoveCredential(cmd.Context(), domain.AgentID(args[0])); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "removed credential for %s\n", args[0])
			return err
		},
	}
}

func newCredentialDefaultCmd(app *app) *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "default <provider>",
		Short: "Store the fallback API key used by sessions without their own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := domain.Provider(strings.ToLower(args[0]))
			if !provider.Known() || provider.IsCLI() {
				return fmt.Errorf("unsupported provider %q", args[0])
			}
			key := application.ProviderCredentialKey(provider)
			if err := app.credentials.Put(cmd.Context(), key, value); err != nil {
				return fmt.Errorf("store credential: %w", err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "stored credential %s\n", key)
			return err
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "API key")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}
