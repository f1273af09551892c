package main

import (
	"github.com/parleyhq/parley/internal/cli"
	"github.com/spf13/cobra"
)

func newPlayCmd() *cobra.Command {
	var opts cli.PlayOptions

	cmd := &cobra.Command{
		Use:   "play [scenario]",
		Short: "Play a dialogue in the terminal",
		Long: `Plays a dialogue interactively. Answer with the option number or its event id.
Type "quit" to stop; with --session the progress is kept and can be resumed later.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.ScenarioID = args[0]
			}
			app, cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if opts.DisplayName == "" {
				opts.DisplayName = cfg.DisplayName
			}
			opts.In = cmd.InOrStdin()
			opts.Out = cmd.OutOrStdout()
			opts.Banner = !opts.JSON

			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			return cli.Play(ctx, app, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.ScenarioID, "scenario", "s", "", "Scenario to play (first scenario when empty)")
	f.StringVarP(&opts.DialogueID, "dialogue", "d", "", "Dialogue within the scenario (first dialogue when empty)")
	f.StringVarP(&opts.DisplayName, "name", "n", "", "Name used in option labels")
	f.StringVar(&opts.SessionID, "session", "", "Session id to resume or create")
	f.BoolVar(&opts.Fresh, "fresh", false, "Discard the stored session before starting")
	f.BoolVar(&opts.JSON, "json", false, "Read and write newline-delimited JSON")
	return cmd
}
