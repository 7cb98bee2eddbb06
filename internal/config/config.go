// Package config reads Hearth's settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/hearth/internal/backup"
)

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string
	BaseURL   string
	// InviteURL is the page linked from invite mail. Defaults to BaseURL,
	// where the web app signs users in and lists their invites.
	InviteURL string

	// Identity tokens are HMAC-signed by the identity provider.
	JWTSecret string
	JWTIssuer string

	// ProfileURL points at the provider's user directory. When empty,
	// profiles come from the locally recorded users.
	ProfileURL   string
	ProfileToken string

	PostmarkToken string
	FromEmail     string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string

	// RateLimit is the sustained mutations per second allowed per identity.
	RateLimit float64
	RateBurst int

	// AllowedOrigins are extra host patterns accepted on websocket upgrades.
	AllowedOrigins []string

	// Backup ships encrypted database snapshots to S3-compatible storage.
	Backup           backup.S3Config
	BackupPassphrase string
	// BackupInterval of zero disables scheduled backups in serve.
	BackupInterval  time.Duration
	BackupRetention time.Duration
}

// Load reads envFile when it exists, then the process environment. Variables
// already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Port:            getenv("HEARTH_PORT", "8080"),
		DBPath:          getenv("HEARTH_DB_PATH", "hearth.db"),
		LogLevel:        getenv("HEARTH_LOG_LEVEL", "info"),
		LogFormat:       getenv("HEARTH_LOG_FORMAT", "text"),
		BaseURL:         strings.TrimRight(getenv("HEARTH_BASE_URL", "http://localhost:8080"), "/"),
		JWTSecret:       os.Getenv("HEARTH_JWT_SECRET"),
		JWTIssuer:       os.Getenv("HEARTH_JWT_ISSUER"),
		ProfileURL:      os.Getenv("HEARTH_PROFILE_URL"),
		ProfileToken:    os.Getenv("HEARTH_PROFILE_TOKEN"),
		PostmarkToken:   os.Getenv("HEARTH_POSTMARK_TOKEN"),
		FromEmail:       os.Getenv("HEARTH_FROM_EMAIL"),
		VAPIDPublicKey:  os.Getenv("HEARTH_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("HEARTH_VAPID_PRIVATE_KEY"),
		VAPIDSubscriber: getenv("HEARTH_VAPID_SUBSCRIBER", "mailto:admin@localhost"),
		AllowedOrigins:  splitList(os.Getenv("HEARTH_ALLOWED_ORIGINS")),
		Backup: backup.S3Config{
			Endpoint:  os.Getenv("HEARTH_S3_ENDPOINT"),
			Bucket:    os.Getenv("HEARTH_S3_BUCKET"),
			Region:    getenv("HEARTH_S3_REGION", "us-east-1"),
			AccessKey: os.Getenv("HEARTH_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("HEARTH_S3_SECRET_KEY"),
			Prefix:    getenv("HEARTH_BACKUP_PREFIX", "hearth/"),
		},
		BackupPassphrase: os.Getenv("HEARTH_BACKUP_PASSPHRASE"),
	}

	cfg.InviteURL = getenv("HEARTH_INVITE_URL", cfg.BaseURL+"/")

	var err error
	if cfg.RateLimit, err = parseFloat("HEARTH_RATE_LIMIT", 5); err != nil {
		return Config{}, err
	}
	if cfg.RateBurst, err = parseInt("HEARTH_RATE_BURST", 20); err != nil {
		return Config{}, err
	}
	if cfg.BackupInterval, err = parseDuration("HEARTH_BACKUP_INTERVAL", 0); err != nil {
		return Config{}, err
	}
	days, err := parseInt("HEARTH_BACKUP_RETENTION_DAYS", 30)
	if err != nil {
		return Config{}, err
	}
	cfg.BackupRetention = time.Duration(days) * 24 * time.Hour
	return cfg, nil
}

// Validate reports settings the server cannot run without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("HEARTH_JWT_SECRET is required")
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return errors.New("HEARTH_RATE_LIMIT and HEARTH_RATE_BURST must be positive")
	}
	if c.BackupInterval > 0 && c.BackupPassphrase == "" {
		return errors.New("HEARTH_BACKUP_PASSPHRASE is required when HEARTH_BACKUP_INTERVAL is set")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func parseInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
