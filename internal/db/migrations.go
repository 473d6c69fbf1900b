package db

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order; the index+1 of each entry is its schema
// version, recorded in PRAGMA user_version. Append new migrations at the end.
var migrations = []string{
	// Version 1: item cache keyed by item id. The record column holds the full
	// item as JSON so the cache never has to track remote column changes.
	`CREATE TABLE IF NOT EXISTS items (
	    id        TEXT PRIMARY KEY,
	    record    TEXT NOT NULL,
	    cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	// Version 2: key/value settings (session signing secret).
	`CREATE TABLE IF NOT EXISTS settings (
	    key   TEXT PRIMARY KEY,
	    value TEXT NOT NULL
	)`,

	// Version 3: revoked admin session tokens.
	`CREATE TABLE IF NOT EXISTS revoked_tokens (
	    jti        TEXT PRIMARY KEY,
	    expires_at DATETIME NOT NULL
	)`,
}

// SchemaVersion is the version a fully migrated database reports.
var SchemaVersion = len(migrations)

// Version returns the schema version recorded in the database.
func Version(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// Migrate applies every migration newer than the recorded schema version.
// Running it on an up-to-date database is a no-op.
func Migrate(db *sql.DB) error {
	current, err := Version(db)
	if err != nil {
		return err
	}

	for i := current; i < len(migrations); i++ {
		if err := apply(db, i+1, migrations[i]); err != nil {
			return err
		}
	}
	return nil
}

func apply(db *sql.DB, version int, stmt string) error {
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration %d: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("running migration %d: %w", version, err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("recording migration %d: %w", version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %d: %w", version, err)
	}
	return nil
}
