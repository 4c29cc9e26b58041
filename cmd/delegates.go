package cmd

import (
	"fmt"

	"github.com/bnema/agentdeck/internal/application"
	"github.com/bnema/agentdeck/internal/domain"
	"github.com/spf13/cobra"
)

type delegateView struct {
	Backend   domain.BackendID `json:"backend" yaml:"backend"`
	Score     float64          `json:"score" yaml:"score"`
	Successes int              `json:"successes" yaml:"successes"`
	Failures  int              `json:"failures" yaml:"failures"`
	LastError string           `json:"lastError,omitempty" yaml:"last_error,omitempty"`
}

func newDelegatesCmd(app *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "delegates",
		Short: "Show the delegate health ranking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			health, err := app.loadHealth(cmd.Context())
			if err != nil {
				return err
			}

			scores := health.Scores()
			views := make([]delegateView, 0, len(scores))
			for _, score := range scores {
				views = append(views, delegateView(score))
			}
			if handled, err := writeStructured(cmd.OutOrStdout(), format, views); handled {
				return err
			}

			rendered, err := app.renderDelegates(scores)
			if err != nil {
				return fmt.Errorf("render delegates: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	addFormatFlag(cmd, &format)
	cmd.AddCommand(newDelegatesResetCmd(app))

	return cmd
}

func newDelegatesResetCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget every recorded delegate outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.saveHealth(cmd.Context(), application.NewDelegateHealth(app.clock)); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "delegate health reset")
			return err
		},
	}
}
