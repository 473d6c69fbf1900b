// Package remote is the source-of-truth catalog store: an items table in a
// hosted PostgreSQL database.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/erazemk/vitrina/internal/model"
)

// Schema creates the items table the store expects. Hosted deployments manage
// the table themselves; this exists for local development and tests.
const Schema = `
CREATE TABLE IF NOT EXISTS items (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    price       NUMERIC(12, 2) NOT NULL DEFAULT 0,
    imageurl    TEXT NOT NULL,
    imageurls   JSONB NOT NULL DEFAULT '[]'::jsonb,
    isselected  BOOLEAN NOT NULL DEFAULT TRUE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// querier is the subset of *pgxpool.Pool the store uses.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store implements the catalog repository's remote backend.
type Store struct {
	db querier
}

// New returns a store over an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// Connect creates a connection pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing remote store config: %w", err)
	}
	poolConfig.MaxConns = 4
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating remote store pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		// The pool stays usable; reads fall back to the cache until the
		// database becomes reachable.
		slog.Warn("remote store unreachable at startup", "error", err)
	}
	return pool, nil
}

// EnsureSchema creates the items table if it doesn't already exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("creating remote schema: %w", err)
	}
	return nil
}

// ListItems returns every row, newest first. Columns are read by name so rows
// from older table layouts decode with defaults.
func (s *Store) ListItems(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.Query(ctx, `SELECT * FROM items ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing remote items: %w", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("scanning remote items: %w", err)
	}

	items := make([]model.Item, 0, len(records))
	for _, rec := range records {
		item, err := itemFromRow(rec)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// UpsertItem inserts the item or replaces the row with the same id.
func (s *Store) UpsertItem(ctx context.Context, item model.Item) error {
	args := rowFromItem(item)
	_, err := s.db.Exec(ctx,
		`INSERT INTO items (id, title, description, price, imageurl, imageurls, isselected)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		     title = EXCLUDED.title,
		     description = EXCLUDED.description,
		     price = EXCLUDED.price,
		     imageurl = EXCLUDED.imageurl,
		     imageurls = EXCLUDED.imageurls,
		     isselected = EXCLUDED.isselected`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("upserting remote item: %w", describePgError(err))
	}
	return nil
}

// DeleteItem removes the row with the given id. Deleting a missing id is not
// an error.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting remote item: %w", describePgError(err))
	}
	return nil
}

// describePgError keeps the server's code next to its message, which is what
// an admin needs to tell a missing column from a permission problem.
func describePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s (code %s): %w", pgErr.Message, pgErr.Code, err)
	}
	return err
}
