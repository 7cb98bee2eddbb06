package main

import (
	"github.com/spf13/cobra"

	"github.com/dukerupert/hearth/internal/database"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|status|version]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "status", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			return database.Migrate(cmd.Context(), cfg.DBPath, command)
		},
	}
}
