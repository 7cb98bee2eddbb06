package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/hearth/internal/backup"
	"github.com/dukerupert/hearth/internal/config"
	"github.com/dukerupert/hearth/internal/database"
)

func newBackupCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage encrypted database snapshots in S3-compatible storage",
	}
	cmd.AddCommand(
		newBackupRunCommand(opts),
		newBackupListCommand(opts),
		newBackupRestoreCommand(opts),
		newBackupPruneCommand(opts),
	)
	return cmd
}

// backupManager loads config and builds a Manager. withDB opens the live
// database; the returned close func releases it.
func backupManager(opts *rootOptions, withDB bool) (*backup.Manager, config.Config, func(), error) {
	cfg, err := opts.load()
	if err != nil {
		return nil, config.Config{}, nil, err
	}

	var db *sql.DB
	closeFn := func() {}
	if withDB {
		db, err = database.Open(cfg.DBPath)
		if err != nil {
			return nil, config.Config{}, nil, fmt.Errorf("open database: %w", err)
		}
		closeFn = func() { db.Close() }
	}

	m := backup.NewManager(cfg.Backup, db, slog.Default())
	if !m.Configured() {
		closeFn()
		return nil, config.Config{}, nil, backup.ErrNotConfigured
	}
	return m, cfg, closeFn, nil
}

func requirePassphrase(cfg config.Config) (string, error) {
	if cfg.BackupPassphrase == "" {
		return "", errors.New("HEARTH_BACKUP_PASSPHRASE is required")
	}
	return cfg.BackupPassphrase, nil
}

func newBackupRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Snapshot the database and upload it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cfg, closeFn, err := backupManager(opts, true)
			if err != nil {
				return err
			}
			defer closeFn()
			pass, err := requirePassphrase(cfg)
			if err != nil {
				return err
			}
			snap, err := m.Run(cmd.Context(), pass)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), snap.Key)
			return nil
		},
	}
}

func newBackupListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, closeFn, err := backupManager(opts, false)
			if err != nil {
				return err
			}
			defer closeFn()
			snaps, err := m.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range snaps {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", s.Key, s.Size, s.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newBackupRestoreCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore KEY",
		Short: "Download a snapshot and replace the database file (stop the server first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cfg, closeFn, err := backupManager(opts, false)
			if err != nil {
				return err
			}
			defer closeFn()
			pass, err := requirePassphrase(cfg)
			if err != nil {
				return err
			}
			return m.Restore(cmd.Context(), args[0], pass, cfg.DBPath)
		},
	}
}

func newBackupPruneCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete snapshots older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cfg, closeFn, err := backupManager(opts, false)
			if err != nil {
				return err
			}
			defer closeFn()
			n, err := m.Prune(cmd.Context(), cfg.BackupRetention)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d snapshot(s)\n", n)
			return nil
		},
	}
}
