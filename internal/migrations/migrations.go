// Package migrations embeds the goose schema migrations for the metadata
// store (PostgreSQL) and the local fingerprint store (SQLite).
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

const (
	postgresDir = "postgres"
	sqliteDir   = "sqlite"
)

// goose keeps its base FS and dialect in package globals.
var mu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func up(ctx context.Context, db *sql.DB, dialect, dir string) error {
	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("failed to run %s migrations: %w", dir, err)
	}
	return nil
}

// UpPostgres applies the metadata store schema.
func UpPostgres(ctx context.Context, db *sql.DB) error {
	return up(ctx, db, "pgx", postgresDir)
}

// UpSQLite applies the fingerprint store schema.
func UpSQLite(ctx context.Context, db *sql.DB) error {
	return up(ctx, db, "sqlite3", sqliteDir)
}
