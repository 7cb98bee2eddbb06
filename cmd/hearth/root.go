package main

import (
	"github.com/spf13/cobra"

	"github.com/dukerupert/hearth/internal/config"
	"github.com/dukerupert/hearth/internal/logging"
)

type rootOptions struct {
	envFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "hearth",
		Short:         "Hearth - shared household task tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newBackupCommand(opts))
	cmd.AddCommand(newVAPIDCommand())

	return cmd
}

// load reads configuration and installs the default logger.
func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return config.Config{}, err
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}
