// Package backup ships encrypted snapshots of the SQLite database to
// S3-compatible storage and restores them.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// Prefix is prepended to every object key, e.g. "hearth/".
	Prefix string
}

func (c S3Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// ErrNotConfigured is returned by every operation when S3 settings are missing.
var ErrNotConfigured = errors.New("backup not configured: S3 bucket or credentials missing")

const (
	keyTimeLayout = "20060102T150405Z"
	keySuffix     = ".db.enc"
)

// Snapshot describes one stored backup.
type Snapshot struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// Manager creates, lists, prunes and restores snapshots.
type Manager struct {
	cfg    S3Config
	db     *sql.DB
	client s3Client
	now    func() time.Time
	logger *slog.Logger
}

// NewManager returns a Manager. db may be nil for restore-only use.
func NewManager(cfg S3Config, db *sql.DB, logger *slog.Logger) *Manager {
	m := &Manager{cfg: cfg, db: db, now: time.Now, logger: logger}
	if cfg.complete() {
		m.client = newS3Client(cfg)
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := s3.Options{
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Configured reports whether snapshots can be stored.
func (m *Manager) Configured() bool {
	return m.client != nil
}

// Run snapshots the live database, encrypts it with passphrase and uploads it.
func (m *Manager) Run(ctx context.Context, passphrase string) (Snapshot, error) {
	if m.client == nil {
		return Snapshot{}, ErrNotConfigured
	}
	if m.db == nil {
		return Snapshot{}, errors.New("backup: no database")
	}

	tmpDir, err := os.MkdirTemp("", "hearth-backup-")
	if err != nil {
		return Snapshot{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// VACUUM INTO writes a consistent copy without pausing writers for long.
	copyPath := filepath.Join(tmpDir, "snapshot.db")
	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, copyPath); err != nil {
		return Snapshot{}, fmt.Errorf("vacuum into: %w", err)
	}
	plaintext, err := os.ReadFile(copyPath)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	sealed, err := Seal(plaintext, passphrase)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encrypt: %w", err)
	}

	created := m.now().UTC()
	key := m.cfg.Prefix + "hearth-" + created.Format(keyTimeLayout) + keySuffix
	if _, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	}); err != nil {
		return Snapshot{}, fmt.Errorf("upload to s3: %w", err)
	}

	snap := Snapshot{Key: key, Size: int64(len(sealed)), CreatedAt: created}
	m.logger.Info("backup uploaded", "key", key, "bytes", snap.Size)
	return snap, nil
}

// List returns stored snapshots, newest first.
func (m *Manager) List(ctx context.Context) ([]Snapshot, error) {
	if m.client == nil {
		return nil, ErrNotConfigured
	}

	var snaps []Snapshot
	var token *string
	for {
		out, err := m.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(m.cfg.Bucket),
			Prefix:            aws.String(m.cfg.Prefix + "hearth-"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list s3 objects: %w", err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			created, ok := parseKeyTime(m.cfg.Prefix, key)
			if !ok {
				continue
			}
			snaps = append(snaps, Snapshot{Key: key, Size: aws.ToInt64(obj.Size), CreatedAt: created})
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].CreatedAt.After(snaps[j].CreatedAt) })
	return snaps, nil
}

// Prune deletes snapshots older than retention, always keeping the newest.
// It returns the number deleted.
func (m *Manager) Prune(ctx context.Context, retention time.Duration) (int, error) {
	snaps, err := m.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := m.now().UTC().Add(-retention)
	deleted := 0
	for i, snap := range snaps {
		if i == 0 || !snap.CreatedAt.Before(cutoff) {
			continue
		}
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.Bucket),
			Key:    aws.String(snap.Key),
		}); err != nil {
			m.logger.Warn("delete old backup", "key", snap.Key, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

// Restore downloads and decrypts the snapshot stored under key, checks its
// integrity and writes it to dbPath. The server must not be running against
// dbPath.
func (m *Manager) Restore(ctx context.Context, key, passphrase, dbPath string) error {
	if m.client == nil {
		return ErrNotConfigured
	}

	result, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	sealed, err := io.ReadAll(result.Body)
	if err != nil {
		return fmt.Errorf("read download: %w", err)
	}
	plaintext, err := Open(sealed, passphrase)
	if err != nil {
		return err
	}

	staged := dbPath + ".restore"
	if err := os.WriteFile(staged, plaintext, 0o600); err != nil {
		return fmt.Errorf("write restored db: %w", err)
	}
	defer os.Remove(staged)

	if err := checkIntegrity(ctx, staged); err != nil {
		return err
	}

	if err := os.Rename(staged, dbPath); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")

	m.logger.Info("backup restored", "key", key, "db", dbPath)
	return nil
}

func checkIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// Schedule runs a backup and prune every interval until ctx ends. Failures
// are logged.
func (m *Manager) Schedule(ctx context.Context, interval time.Duration, passphrase string, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Run(ctx, passphrase); err != nil {
				m.logger.Error("scheduled backup", "error", err)
				continue
			}
			if retention > 0 {
				if n, err := m.Prune(ctx, retention); err != nil {
					m.logger.Error("prune backups", "error", err)
				} else if n > 0 {
					m.logger.Info("pruned backups", "deleted", n)
				}
			}
		}
	}
}

func parseKeyTime(prefix, key string) (time.Time, bool) {
	name, ok := strings.CutPrefix(key, prefix+"hearth-")
	if !ok {
		return time.Time{}, false
	}
	stamp, ok := strings.CutSuffix(name, keySuffix)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(keyTimeLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
