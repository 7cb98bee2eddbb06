package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

func init() {
	sqlite.MustRegisterDeterministicScalarFunction("casefold", 1, casefold)
}

// casefold lowercases its argument with Unicode rules. SQLite's own lower()
// and LIKE only fold ASCII.
func casefold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Open opens a SQLite database at the given path and runs migrations.
func Open(dbPath string) (*sql.DB, error) {
	db, err := connect(dbPath)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// Migrate applies pending migrations ("up") or prints their state ("status")
// without starting the server.
func Migrate(ctx context.Context, dbPath, command string) error {
	db, err := connect(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := setupGoose(); err != nil {
		return err
	}

	switch command {
	case "up":
		return goose.UpContext(ctx, db, "migrations")
	case "status":
		return goose.StatusContext(ctx, db, "migrations")
	case "version":
		return goose.VersionContext(ctx, db, "migrations")
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

func connect(dbPath string) (*sql.DB, error) {
	dsn := dbPath
	if strings.Contains(dsn, "?") {
		dsn += "&" + pragmas
	} else {
		dsn += "?" + pragmas
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Every connection to ":memory:" is its own database.
	if strings.HasPrefix(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

func setupGoose() error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return nil
}

func runMigrations(db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
