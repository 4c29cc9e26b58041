package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

type spendView struct {
	Day          string             `json:"day" yaml:"day"`
	SpentUSD     float64            `json:"spentUsd" yaml:"spent_usd"`
	CapUSD       float64            `json:"capUsd" yaml:"cap_usd"`
	InputTokens  int64              `json:"inputTokens" yaml:"input_tokens"`
	OutputTokens int64              `json:"outputTokens" yaml:"output_tokens"`
	Records      int                `json:"records" yaml:"records"`
	ByAgent      map[string]float64 `json:"byAgent,omitempty" yaml:"by_agent,omitempty"`
	Exhausted    bool               `json:"exhausted" yaml:"exhausted"`
}

func newSpendCmd(app *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "spend",
		Short: "Show today's estimated spend against the daily cap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			settings, err := loadSettings(cmd.Context(), app)
			if err != nil {
				return err
			}
			guard, err := app.spendGuard(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := guard.Summary(cmd.Context(), settings, app.clock.Now())
			if err != nil {
				return err
			}

			view := spendView{
				Day:          summary.Day.Format("2006-01-02"),
				SpentUSD:     summary.Spent,
				CapUSD:       summary.Cap,
				InputTokens:  summary.Tokens.InputTokens,
				OutputTokens: summary.Tokens.OutputTokens,
				Records:      summary.Records,
				Exhausted:    summary.Exhausted,
			}
			if len(summary.ByAgent) > 0 {
				view.ByAgent = make(map[string]float64, len(summary.ByAgent))
				for id, cost := range summary.ByAgent {
					view.ByAgent[string(id)] = cost
				}
			}
			if handled, err := writeStructured(cmd.OutOrStdout(), format, view); handled {
				return err
			}

			rendered, err := app.renderSpend(summary)
			if err != nil {
				return fmt.Errorf("render spend: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	addFormatFlag(cmd, &format)
	cmd.AddCommand(newSpendCapCmd(app))

	return cmd
}

func newSpendCapCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cap <usd>",
		Short: "Set the daily spend cap in USD (0 disables it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			capUSD, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("parse spend cap: %w", err)
			}
			settings, err := loadSettings(cmd.Context(), app)
			if err != nil {
				return err
			}
			settings.DailySpendCapUSD = capUSD
			if err := app.settings.Save(cmd.Context(), settings); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}

			if !settings.SpendCapEnabled() {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "daily spend cap disabled")
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "daily spend cap: $%.2f\n", settings.DailySpendCapUSD)
			return err
		},
	}
}

