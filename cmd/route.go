package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/agentdeck/internal/application"
	"github.com/bnema/agentdeck/internal/domain"
	"github.com/spf13/cobra"
)

func newRouteCmd(app *app) *cobra.Command {
	var (
		sessionID string
		tools     []string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "route <message...>",
		Short: "Show how a message would be routed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			decision := app.router.Classify(strings.Join(args, " "), policy.Enabled, settings)
			if handled, err := writeStructured(cmd.OutOrStdout(), format, decision); handled {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "intent: %s\n", decision.Intent)
			_, _ = fmt.Fprintf(out, "confidence: %.2f\n", decision.Confidence)
			_, _ = fmt.Fprintf(out, "tools: %s\n", joinOrNone(decision.PreferredTools))
			delegates := make([]string, 0, len(decision.PreferredDelegates))
			for _, id := range decision.PreferredDelegates {
				delegates = append(delegates, string(id))
			}
			_, _ = fmt.Fprintf(out, "delegates: %s\n", joinOrNone(delegates))
			if decision.PrimaryURL != "" {
				_, _ = fmt.Fprintf(out, "url: %s\n", decision.PrimaryURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Use the tools enabled on this session")
	cmd.Flags().StringSliceVar(&tools, "tools", nil, "Tools to treat as enabled (default: every known tool)")
	addFormatFlag(cmd, &format)

	return cmd
}

func loadSettings(ctx context.Context, app *app) (domain.Settings, error) {
	settings, err := app.settings.Load(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	settings.ApplyDefaults()
	return settings, nil
}

// resolvePolicy applies the capability policy to a session's tools, an explicit
// list, or the whole catalog, in that order of preference.
func resolvePolicy(ctx context.Context, app *app, sessionID string, tools []string, settings domain.Settings) (domain.ToolPolicy, error) {
	candidates := tools
	switch {
	case sessionID != "":
		session, err := app.sessionService.Get(ctx, domain.SessionID(sessionID))
		if err != nil {
			return domain.ToolPolicy{}, err
		}
		candidates = session.Tools
	case len(tools) == 0:
		candidates = domain.KnownTools
	}
	return application.ResolveToolPolicy(candidates, settings), nil
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
