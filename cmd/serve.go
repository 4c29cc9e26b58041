package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/httpapi"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(app *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve turns over HTTP and drive heartbeats on the main session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = app.cfg.GetString(keyServeAddr)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			orchestrator, err := app.engine(ctx)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "listening on http://%s\n", ln.Addr())

			server := httpapi.New(orchestrator, app.settings, app.clock, app.log)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.Serve(gctx, ln)
			})
			g.Go(func() error {
				return app.settings.Watch(gctx, func(settings domain.Settings) {
					app.log.Info("capability policy reloaded", "mode", settings.PolicyMode, "heartbeat_interval", settings.HeartbeatInterval)
				})
			})

			err = g.Wait()
			if saveErr := app.saveHealth(context.WithoutCancel(ctx), orchestrator.Health()); saveErr != nil {
				app.log.Warn("persist delegate health", "err", saveErr)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: serve.addr, 127.0.0.1:7411)")

	return cmd
}
