package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newScenariosCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List available scenarios and their dialogues",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			list, err := app.Engine.Scenarios(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			for _, sc := range list {
				fmt.Fprintf(out, "%s\t%s\t[%s]\n", sc.ID, sc.Title, strings.Join(sc.DialogueIDs, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
