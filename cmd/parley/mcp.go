package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/parleyhq/parley/internal/cli"
	"github.com/parleyhq/parley/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Exposes sessions as MCP tools so AI agents can drive practice conversations.

Supported transports:
- stdio (default): JSON-RPC over Standard Input/Output. Logs go to Stderr.
- sse: Server-Sent Events over HTTP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			transport, _ := cmd.Flags().GetString("transport")
			port, _ := cmd.Flags().GetInt("port")

			app, _, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			srv := mcp.NewServer(app.Engine, mcp.WithLogger(app.Logger))

			switch transport {
			case "stdio":
				app.Logger.Info("Starting MCP server", "transport", transport)
				return srv.ServeStdio()
			case "sse":
				app.Logger.Info("Starting MCP server", "transport", transport, "port", port)
				ctx := cli.NewSignalContext(cmd.Context())
				defer ctx.Cancel()
				if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				app.Logger.Info("MCP server stopped gracefully")
				return nil
			default:
				return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
			}
		},
	}
	cmd.Flags().String("transport", "stdio", "Transport protocol: 'stdio' or 'sse'")
	cmd.Flags().Int("port", 8080, "Port to listen on (sse only)")
	return cmd
}
