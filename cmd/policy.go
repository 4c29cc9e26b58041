package cmd

import (
	"fmt"

	"github.com/bnema/agentdeck/internal/application"
	"github.com/bnema/agentdeck/internal/domain"
	"github.com/spf13/cobra"
)

func newPolicyCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect and change the capability policy",
	}

	cmd.AddCommand(
		newPolicyShowCmd(app),
		newPolicyCheckCmd(app),
		newPolicyModeCmd(app),
		newPolicyBlockCmd(app, true),
		newPolicyBlockCmd(app, false),
	)

	return cmd
}

type policyView struct {
	Mode    domain.PolicyMode    `json:"mode" yaml:"mode"`
	Enabled []string             `json:"enabledTools" yaml:"enabled_tools"`
	Blocked []domain.BlockedTool `json:"blockedTools" yaml:"blocked_tools"`
}

func newPolicyShowCmd(app *app) *cobra.Command {
	var (
		sessionID string
		tools     []string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show which tools the policy enables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			settings, err := loadSettings(cmd.Context(), app)
			if err != nil {
				return err
			}
			policy, err := resolvePolicy(cmd.Context(), app, sessionID, tools, settings)
			if err != nil {
				return err
			}

			view := policyView{Mode: settings.PolicyMode, Enabled: policy.Enabled, Blocked: policy.Blocked}
			if handled, err := writeStructured(cmd.OutOrStdout(), format, view); handled {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "mode: %s\n", view.Mode)
			_, _ = fmt.Fprintf(out, "enabled: %s\n", joinOrNone(view.Enabled))
			for _, blocked := range view.Blocked {
				_, _ = fmt.Fprintf(out, "blocked: %s\t%s\n", blocked.Tool, blocked.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Resolve against this session's tools")
	cmd.Flags().StringSliceVar(&tools, "tools", nil, "Resolve against these tools (default: every known tool)")
	addFormatFlag(cmd, &format)

	return cmd
}

func newPolicyCheckCmd(app *app) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "check <tool>",
		Short: "Check whether a forced call to a tool would be allowed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd.Context(), app)
			if err != nil {
				return err
			}
			policy, err := resolvePolicy(cmd.Context(), app, sessionID, nil, settings)
			if err != nil {
				return err
			}

			tool := domain.NormalizeToolName(args[0])
			if reason := application.BlockConcreteInvocation(tool, policy, settings); reason != "" {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: blocked (%s)\n", tool, reason)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: allowed\n", tool)
			return err
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Check against this session's tools")

	return cmd
}

func newPolicyModeCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mode <permissive|balanced|strict>",
		Short: "Set the capability policy mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd.Context(), app)
			if err != nil {
				return err
			}
			settings.PolicyMode = domain.PolicyMode(args[0])
			if err := app.settings.Save(cmd.Context(), settings); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "mode: %s\n", settings.PolicyMode)
			return err
		},
	}
}

func newPolicyBlockCmd(app *app, block bool) *cobra.Command {
	use, short := "block <tool>", "Block a tool for every session"
	if !block {
		use, short = "unblock <tool>", "Remove a tool from the block list"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd.Context(), app)
			if err != nil {
				return err
			}

			tool := domain.NormalizeToolName(args[0])
			kept := make([]string, 0, len(settings.BlockedTools)+1)
			for _, blocked := range settings.BlockedTools {
				if domain.NormalizeToolName(blocked) != tool {
					kept = append(kept, blocked)
				}
			}
			if block {
				kept = append(kept, tool)
			}
			settings.BlockedTools = kept

			if err := app.settings.Save(cmd.Context(), settings); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "blocked: %s\n", joinOrNone(settings.BlockedTools))
			return err
		},
	}
}
