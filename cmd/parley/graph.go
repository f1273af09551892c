package main

import (
	"fmt"

	"github.com/parleyhq/parley/internal/presentation/graph"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <scenario> [dialogue]",
		Short: "Export a dialogue as a Mermaid diagram",
		Long:  `Prints a Mermaid flowchart of a dialogue. With --session, the steps the session visited are highlighted.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			dialogueID := ""
			if len(args) > 1 {
				dialogueID = args[1]
			}
			g, err := app.Engine.Graph(cmd.Context(), args[0], dialogueID)
			if err != nil {
				return err
			}

			var overlay *graph.Overlay
			if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
				s, err := app.Engine.Get(cmd.Context(), sessionID)
				if err != nil {
					return err
				}
				overlay = graph.OverlayFor(s)
			}

			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g.Definition(), overlay))
			return nil
		},
	}
	cmd.Flags().String("session", "", "Highlight the path of this session")
	return cmd
}
