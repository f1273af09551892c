package main

import (
	"fmt"
	"net"

	"github.com/parleyhq/parley/internal/cli"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serves the session API, the scenario catalog, the search and chat proxies
and Prometheus metrics over HTTP. The OpenAPI document is available at /openapi.yaml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
			}
			if cmd.Flags().Changed("watch") {
				cfg.Scenarios.Watch, _ = cmd.Flags().GetBool("watch")
			}

			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
			}

			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			return cli.Serve(ctx, app, cfg.Server, cfg.Scenarios.Watch, ln)
		},
	}
	cmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	cmd.Flags().BoolP("watch", "w", false, "Reload scenarios when files change")
	return cmd
}
