package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errValidation = errors.New("validation failed")

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every dialogue graph for consistency",
		Long: `Compiles every dialogue of every scenario and reports dangling transitions,
unreachable steps and dialogues that can never end.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			reports, err := app.Engine.Validate(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, r := range reports {
				name := r.ScenarioID
				if r.DialogueID != "" {
					name += "/" + r.DialogueID
				}
				if r.OK() {
					fmt.Fprintf(out, "ok    %s\n", name)
				} else {
					failed++
					fmt.Fprintf(out, "FAIL  %s\n", name)
				}
				if r.Err != nil {
					fmt.Fprintf(out, "      error: %v\n", r.Err)
				}
				for _, v := range r.Violations {
					fmt.Fprintf(out, "      violation: %s\n", v)
				}
				for _, w := range r.Warnings {
					fmt.Fprintf(out, "      warning: %s\n", w)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d dialogues", errValidation, failed, len(reports))
			}
			fmt.Fprintf(out, "%d dialogues are valid\n", len(reports))
			return nil
		},
	}
}
