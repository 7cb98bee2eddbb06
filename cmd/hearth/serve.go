package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/hearth/internal/backup"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/server"
)

const (
	shutdownTimeout = 10 * time.Second
	cleanupInterval = 5 * time.Minute
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := slog.Default()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	srv := server.New(db, cfg, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	if cfg.BackupInterval > 0 {
		backups := backup.NewManager(cfg.Backup, db, logger)
		if backups.Configured() {
			logger.Info("scheduled backups enabled", "every", cfg.BackupInterval, "bucket", cfg.Backup.Bucket)
			go backups.Schedule(ctx, cfg.BackupInterval, cfg.BackupPassphrase, cfg.BackupRetention)
		} else {
			logger.Warn("HEARTH_BACKUP_INTERVAL set but S3 bucket or credentials missing; backups disabled")
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("hearth listening", "addr", httpServer.Addr, "db", cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := srv.Drain(shutdownCtx); err != nil {
		logger.Warn("push deliveries still pending at shutdown", "error", err)
	}
	return nil
}
