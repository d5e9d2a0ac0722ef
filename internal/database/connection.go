package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("not found")

// Supported DB_TYPE values
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Open connects to the gateway database and initializes the schema. dbType
// is "sqlite" (dsn is a file path) or "postgres" (dsn is a connection URL).
func Open(dbType, dsn string) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch dbType {
	case TypeSQLite, "":
		if dir := filepath.Dir(dsn); dir != "." && dsn != ":memory:" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		db, err = sqlx.Connect("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case TypePostgres:
		db, err = sqlx.Connect("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}

	if err := initializeSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var schema = []struct {
	name string
	ddl  string
}{
	{"documents", `
		CREATE TABLE IF NOT EXISTS documents (
			user_id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"streaks", `
		CREATE TABLE IF NOT EXISTS streaks (
			user_id TEXT NOT NULL,
			activity TEXT NOT NULL,
			streak_count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, activity)
		)`},
	{"streak_history", `
		CREATE TABLE IF NOT EXISTS streak_history (
			user_id TEXT NOT NULL,
			day TEXT NOT NULL,
			activity TEXT NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT false,
			PRIMARY KEY (user_id, day, activity)
		)`},
	{"sessions", `
		CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`},
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(ctx context.Context, db *sqlx.DB) error {
	for _, t := range schema {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}
	return nil
}
