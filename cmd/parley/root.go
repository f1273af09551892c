package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/parleyhq/parley/internal/cli"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/logging"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "parley",
		Short: "Parley is a dialogue engine for practicing social skills",
		Long: `Parley plays branching practice conversations. Each choice moves the conversation
to a new step and scores social skills such as clarity, empathy and assertiveness.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.String("dir", "", "Directory containing scenario files (built-in scenarios when empty)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text or json")

	root.AddCommand(
		newPlayCmd(),
		newServeCmd(),
		newMCPCmd(),
		newScenariosCmd(),
		newValidateCmd(),
		newGraphCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads --config and applies the persistent flags on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("dir") {
		cfg.Scenarios.Dir, _ = cmd.Flags().GetString("dir")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format, _ = cmd.Flags().GetString("log-format")
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(w, level, format), nil
}

// setup loads configuration and builds the app. Logs go to the command's error stream.
func setup(cmd *cobra.Command) (*cli.App, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	app, err := cli.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return app, cfg, nil
}
