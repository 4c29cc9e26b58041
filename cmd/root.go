package cmd

import (
	"fmt"

	"github.com/bnema/agentdeck/internal/logger"
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	app := &app{}
	var (
		logLevel string
		logFile  string
	)

	rootCmd := &cobra.Command{
		Use:           "deck",
		Short:         "agentdeck (deck): run agent turns and route them to tools and delegates",
		Long:          "deck runs one turn at a time against an agent session, routes the reply to tools and coding delegates under a capability policy, and keeps a spend-capped usage ledger.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if logLevel == "" {
				logLevel = cfg.GetString(keyLogLevel)
			}
			if logFile == "" {
				logFile = cfg.GetString(keyLogFile)
			}
			if err := logger.Configure(logLevel, logFile); err != nil {
				return fmt.Errorf("configure logger: %w", err)
			}
			return app.wire(cfg, logger.Logger)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return app.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Append logs to this file instead of stderr")

	rootCmd.AddCommand(
		newVersionCmd(),
		newTurnCmd(app),
		newHeartbeatCmd(app),
		newRouteCmd(app),
		newPolicyCmd(app),
		newSessionCmd(app),
		newAgentCmd(app),
		newCredentialCmd(app),
		newSpendCmd(app),
		newDelegatesCmd(app),
		newServeCmd(app),
	)

	return rootCmd
}
