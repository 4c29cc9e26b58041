package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	turnrender "github.com/bnema/agentdeck/internal/adapters/render/turn"
	"github.com/bnema/agentdeck/internal/application"
	"github.com/bnema/agentdeck/internal/domain"
	"github.com/spf13/cobra"
)

type turnFlags struct {
	image       string
	source      string
	internal    bool
	format      string
	stream      bool
	quiet       bool
	showRouting bool
}

func newTurnCmd(app *app) *cobra.Command {
	var flags turnFlags

	cmd := &cobra.Command{
		Use:   "turn <session-id> <message...>",
		Short: "Run one turn on a session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := domain.RunSource(flags.source)
			if !source.Valid() {
				return fmt.Errorf("unsupported run source %q", flags.source)
			}
			return runTurn(cmd, app, application.TurnRequest{
				SessionID: domain.SessionID(args[0]),
				Message:   strings.Join(args[1:], " "),
				ImagePath: flags.image,
				Source:    source,
				Internal:  flags.internal,
			}, flags)
		},
	}

	cmd.Flags().StringVar(&flags.image, "image", "", "Attach an image file")
	cmd.Flags().StringVar(&flags.source, "source", string(domain.SourceChat), "Run source (chat, connector, followup, schedule, system)")
	cmd.Flags().BoolVar(&flags.internal, "internal", false, "Do not persist the inbound message and skip forced tool routing")
	cmd.Flags().BoolVar(&flags.stream, "stream", false, "Print reply text as it arrives")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Hide the progress spinner")
	cmd.Flags().BoolVar(&flags.showRouting, "show-routing", false, "Print the routing decision above the reply")
	addFormatFlag(cmd, &flags.format)

	return cmd
}

func newHeartbeatCmd(app *app) *cobra.Command {
	var (
		sessionID string
		message   string
		flags     turnFlags
	)

	cmd := &cobra.Command{
		Use:   "heartbeat",
		Short: "Run a heartbeat self-check on a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTurn(cmd, app, application.TurnRequest{
				SessionID: domain.SessionID(sessionID),
				Message:   message,
				Source:    domain.SourceHeartbeat,
			}, flags)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", string(domain.MainSessionID), "Session to check")
	cmd.Flags().StringVar(&message, "message", "", "Override the heartbeat prompt")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Hide the progress spinner")
	addFormatFlag(cmd, &flags.format)

	return cmd
}

type turnOutput struct {
	Text           string                  `json:"text" yaml:"text"`
	Persisted      bool                    `json:"persisted" yaml:"persisted"`
	ToolEvents     []toolEventOutput       `json:"toolEvents,omitempty" yaml:"tool_events,omitempty"`
	Warnings       []string                `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Error          string                  `json:"error,omitempty" yaml:"error,omitempty"`
	Routing        *domain.RoutingDecision `json:"routing,omitempty" yaml:"routing,omitempty"`
	Classification string                  `json:"classification,omitempty" yaml:"classification,omitempty"`
}

type toolEventOutput struct {
	Name   string  `json:"name" yaml:"name"`
	Input  string  `json:"input,omitempty" yaml:"input,omitempty"`
	Output *string `json:"output,omitempty" yaml:"output,omitempty"`
	Error  bool    `json:"error,omitempty" yaml:"error,omitempty"`
}

// warningLog collects warning events. Backends emit from their own goroutines.
type warningLog struct {
	mu     sync.Mutex
	events []domain.StreamEvent
}

func (w *warningLog) add(ev domain.StreamEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, ev)
}

func (w *warningLog) list() []domain.StreamEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]domain.StreamEvent(nil), w.events...)
}

func runTurn(cmd *cobra.Command, app *app, req application.TurnRequest, flags turnFlags) error {
	if err := validateFormat(flags.format); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	orchestrator, err := app.engine(ctx)
	if err != nil {
		return err
	}

	warnings := &warningLog{}
	stdout := cmd.OutOrStdout()
	var streamMu sync.Mutex
	var progress func(domain.StreamEvent)
	req.OnEvent = func(ev domain.StreamEvent) {
		if progress != nil {
			progress(ev)
		}
		switch ev.Type {
		case domain.EventWarning:
			warnings.add(ev)
		case domain.EventDelta:
			if flags.stream {
				streamMu.Lock()
				_, _ = io.WriteString(stdout, ev.Text)
				streamMu.Unlock()
			}
		}
	}

	var result application.TurnResult
	work := func(ctx context.Context, onProgress func(domain.StreamEvent)) error {
		progress = onProgress
		result = orchestrator.Run(ctx, req)
		return nil
	}
	if flags.quiet || flags.stream || flags.format != formatText {
		_ = work(ctx, nil)
	} else if err := runWithSpinner(ctx, cmd.ErrOrStderr(), "Running turn...", work); err != nil {
		return fmt.Errorf("run turn: %w", err)
	}

	if err := app.saveHealth(context.WithoutCancel(ctx), orchestrator.Health()); err != nil {
		app.log.Warn("persist delegate health", "err", err)
	}

	if err := writeTurnResult(cmd, app, result, warnings.list(), flags); err != nil {
		return err
	}
	if result.Failed() {
		if result.Err != nil {
			return fmt.Errorf("turn failed: %w", result.Err)
		}
		return errors.New("turn failed: " + result.Error)
	}
	return nil
}

func writeTurnResult(cmd *cobra.Command, app *app, result application.TurnResult, warnings []domain.StreamEvent, flags turnFlags) error {
	out := cmd.OutOrStdout()

	view := turnOutput{
		Text:           result.Text,
		Persisted:      result.Persisted,
		Error:          result.Error,
		Routing:        result.Routing,
		Classification: string(result.Classification),
	}
	for _, event := range result.ToolEvents {
		view.ToolEvents = append(view.ToolEvents, toolEventOutput{Name: event.Name, Input: event.Input, Output: event.Output, Error: event.Error})
	}
	for _, ev := range warnings {
		view.Warnings = append(view.Warnings, ev.Text)
	}
	if handled, err := writeStructured(out, flags.format, view); handled {
		return err
	}

	if flags.stream {
		// The reply already went out as deltas.
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
		if !result.Failed() && len(result.ToolEvents) == 0 && len(warnings) == 0 {
			return nil
		}
	}

	rendered, err := app.renderTurn(result, turnrender.RenderOptions{
		Warnings:    warnings,
		ShowRouting: flags.showRouting,
		OmitText:    flags.stream,
	})
	if err != nil {
		return fmt.Errorf("render turn: %w", err)
	}
	_, err = fmt.Fprintln(out, rendered)
	return err
}
