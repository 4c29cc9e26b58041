package cmd

import (
	"fmt"

	"github.com/bnema/agentdeck/internal/application"
	"github.com/bnema/agentdeck/internal/domain"
	"github.com/spf13/cobra"
)

func newAgentCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage agents",
	}

	cmd.AddCommand(
		newAgentSetCmd(app),
		newAgentListCmd(app),
		newAgentShowCmd(app),
		newAgentDeleteCmd(app),
	)

	return cmd
}

func newAgentSetCmd(app *app) *cobra.Command {
	var (
		name         string
		provider     string
		model        string
		systemPrompt string
		ackMaxChars  int
	)

	cmd := &cobra.Command{
		Use:   "set <agent-id>",
		Short: "Create or update an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := application.SaveAgentCommand{
				ID:       domain.AgentID(args[0]),
				Name:     name,
				Provider: domain.Provider(provider),
				Model:    model,
			}
			if cmd.Flags().Changed("system-prompt") {
				command.SystemPrompt = &systemPrompt
			}
			if cmd.Flags().Changed("ack-max-chars") {
				command.HeartbeatAckMaxChars = &ackMaxChars
			}

			agent, err := app.agentService.SaveAgent(cmd.Context(), command)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved agent %s (%s)\n", agent.ID, agent.Provider)
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&provider, "provider", "", "Provider (openai, openrouter, ollama, anthropic, gemini, claude-cli, codex-cli, opencode-cli)")
	cmd.Flags().StringVar(&model, "model", "", "Model name")
	cmd.Flags().StringVar(&systemPrompt, "system-prompt", "", "System prompt")
	cmd.Flags().IntVar(&ackMaxChars, "ack-max-chars", 0, "Heartbeat acknowledgement threshold for this agent")

	return cmd
}

func newAgentListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agents, err := app.agentService.ListAgents(cmd.Context())
			if err != nil {
				return err
			}

			for _, agent := range agents {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n",
					agent.ID, agent.Name, agent.Provider, orDash(agent.Model))
			}
			return nil
		},
	}
}

type agentView struct {
	ID                   domain.AgentID  `json:"id" yaml:"id"`
	Name                 string          `json:"name" yaml:"name"`
	Provider             domain.Provider `json:"provider" yaml:"provider"`
	Model                string          `json:"model,omitempty" yaml:"model,omitempty"`
	HasCredential        bool            `json:"hasCredential" yaml:"has_credential"`
	SystemPrompt         string          `json:"systemPrompt,omitempty" yaml:"system_prompt,omitempty"`
	HeartbeatAckMaxChars int             `json:"heartbeatAckMaxChars,omitempty" yaml:"heartbeat_ack_max_chars,omitempty"`
}

func newAgentShowCmd(app *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <agent-id>",
		Short: "Show an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			agent, err := app.agentService.GetAgent(cmd.Context(), domain.AgentID(args[0]))
			if err != nil {
				return err
			}

			// The credential reference is never printed, only whether one is set.
			view := agentView{
				ID:                   agent.ID,
				Name:                 agent.Name,
				Provider:             agent.Provider,
				Model:                agent.Model,
				HasCredential:        agent.CredentialID != "",
				SystemPrompt:         agent.SystemPrompt,
				HeartbeatAckMaxChars: agent.HeartbeatAckMaxChars,
			}
			if handled, err := writeStructured(cmd.OutOrStdout(), format, view); handled {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "agent: %s (%s)\n", view.ID, view.Name)
			_, _ = fmt.Fprintf(out, "provider: %s\n", view.Provider)
			_, _ = fmt.Fprintf(out, "model: %s\n", orDash(view.Model))
			_, _ = fmt.Fprintf(out, "credential: %t\n", view.HasCredential)
			return nil
		},
	}

	addFormatFlag(cmd, &format)

	return cmd
}

func newAgentDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <agent-id>",
		Short: "Delete an agent and its stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.agentService.DeleteAgent(cmd.Context(), domain.AgentID(args[0])); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted agent %s\n", args[0])
			return err
		},
	}
}
