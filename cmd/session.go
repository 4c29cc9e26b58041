package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/bnema/agentdeck/internal/application"
	"github.com/bnema/agentdeck/internal/domain"
	"github.com/spf13/cobra"
)

func newSessionCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage sessions",
	}

	cmd.AddCommand(
		newSessionCreateCmd(app),
		newSessionListCmd(app),
		newSessionShowCmd(app),
		newSessionDeleteCmd(app),
		newSessionToolsCmd(app),
		newSessionMissionCmd(app),
	)

	return cmd
}

func newSessionCreateCmd(app *app) *cobra.Command {
	var (
		name    string
		agentID string
		tools   []string
		cwd     string
	)

	cmd := &cobra.Command{
		Use:   "create <session-id>",
		Short: "Create a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cwd == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("resolve working directory: %w", err)
				}
				cwd = wd
			}

			session, err := app.sessionService.Create(cmd.Context(), application.CreateSessionCommand{
				ID:      domain.SessionID(args[0]),
				Name:    name,
				AgentID: domain.AgentID(agentID),
				Tools:   tools,
				Cwd:     cwd,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created session %s\n", session.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&agentID, "agent", "", "Bind the session to an agent")
	cmd.Flags().StringSliceVar(&tools, "tools", nil, "Tools enabled on the session")
	cmd.Flags().StringVar(&cwd, "cwd", "", "Working directory for CLI backends (default: current directory)")

	return cmd
}

func newSessionListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessions, err := app.sessionService.List(cmd.Context())
			if err != nil {
				return err
			}

			for _, session := range sessions {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d messages\n",
					session.ID, session.Name, orDash(string(session.AgentID)), len(session.Messages))
			}
			return nil
		},
	}
}

type sessionView struct {
	ID           domain.SessionID  `json:"id" yaml:"id"`
	Name         string            `json:"name" yaml:"name"`
	AgentID      domain.AgentID    `json:"agentId,omitempty" yaml:"agent_id,omitempty"`
	Provider     domain.Provider   `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model        string            `json:"model,omitempty" yaml:"model,omitempty"`
	Cwd          string            `json:"cwd,omitempty" yaml:"cwd,omitempty"`
	Tools        []string          `json:"tools" yaml:"tools"`
	Mission      string            `json:"mission,omitempty" yaml:"mission,omitempty"`
	ResumeTokens map[string]string `json:"resumeTokens,omitempty" yaml:"resume_tokens,omitempty"`
	Messages     []messageView     `json:"messages" yaml:"messages"`
	LastActiveAt time.Time         `json:"lastActiveAt" yaml:"last_active_at"`
}

type messageView struct {
	Role  domain.Role        `json:"role" yaml:"role"`
	Kind  domain.MessageKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Text  string             `json:"text" yaml:"text"`
	Tools []string           `json:"tools,omitempty" yaml:"tools,omitempty"`
	Time  time.Time          `json:"time" yaml:"time"`
}

func newSessionView(session domain.Session, limit int) sessionView {
	view := sessionView{
		ID:           session.ID,
		Name:         session.Name,
		AgentID:      session.AgentID,
		Provider:     session.Provider,
		Model:        session.Model,
		Cwd:          session.Cwd,
		Tools:        append([]string{}, session.Tools...),
		ResumeTokens: map[string]string{},
		Messages:     []messageView{},
		LastActiveAt: session.LastActiveAt,
	}
	if session.MainLoop != nil {
		view.Mission = string(session.MainLoop.Status)
	}
	for backend, token := range session.ResumeTokens {
		view.ResumeTokens[string(backend)] = token
	}
	for _, msg := range session.History(limit) {
		entry := messageView{Role: msg.Role, Kind: msg.Kind, Text: msg.Text, Time: msg.Time}
		for _, event := range msg.ToolEvents {
			entry.Tools = append(entry.Tools, event.Name)
		}
		view.Messages = append(view.Messages, entry)
	}
	return view
}

func newSessionShowCmd(app *app) *cobra.Command {
	var (
		format string
		last   int
	)

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session and its recent transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			session, err := app.sessionService.Get(cmd.Context(), domain.SessionID(args[0]))
			if err != nil {
				return err
			}

			view := newSessionView(session, last)
			if handled, err := writeStructured(cmd.OutOrStdout(), format, view); handled {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "session: %s (%s)\n", view.ID, view.Name)
			_, _ = fmt.Fprintf(out, "agent: %s\n", orDash(string(view.AgentID)))
			_, _ = fmt.Fprintf(out, "provider: %s\n", orDash(string(view.Provider)))
			_, _ = fmt.Fprintf(out, "tools: %s\n", joinOrNone(view.Tools))
			if view.Mission != "" {
				_, _ = fmt.Fprintf(out, "mission: %s\n", view.Mission)
			}
			for _, msg := range view.Messages {
				_, _ = fmt.Fprintf(out, "[%s] %s: %s\n", msg.Time.Format("2006-01-02 15:04"), msg.Role, msg.Text)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&last, "last", 10, "Number of recent messages to show")
	addFormatFlag(cmd, &format)

	return cmd
}

func newSessionDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.sessionService.Delete(cmd.Context(), domain.SessionID(args[0])); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted session %s\n", args[0])
			return err
		},
	}
}

func newSessionToolsCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tools <session-id> [tool...]",
		Short: "Replace the tools enabled on a session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.sessionService.SetTools(cmd.Context(), domain.SessionID(args[0]), args[1:])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "tools: %s\n", joinOrNone(session.Tools))
			return err
		},
	}
}

func newSessionMissionCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mission <session-id> <idle|ok|working|blocked>",
		Short: "Set the mission status that heartbeats report on",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.sessionService.SetMissionStatus(cmd.Context(), domain.SessionID(args[0]), domain.MissionStatus(args[1]))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "mission: %s\n", session.MissionStatus())
			return err
		},
	}
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
