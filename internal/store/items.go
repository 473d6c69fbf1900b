package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/erazemk/vitrina/internal/model"
)

// PutItem inserts or replaces the cached record for item.ID.
func PutItem(ctx context.Context, db *sql.DB, item model.Item) error {
	record, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding cached item: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO items (id, record) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET record = excluded.record, cached_at = CURRENT_TIMESTAMP`,
		item.ID, string(record),
	)
	if err != nil {
		return fmt.Errorf("caching item: %w", err)
	}
	return nil
}

// GetItem returns the cached item with the given id, or nil if absent.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	var record string
	err := db.QueryRowContext(ctx, `SELECT record FROM items WHERE id = ?`, id).Scan(&record)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting cached item: %w", err)
	}

	item, err := decodeItem(record)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns every cached item, most recently cached first.
func ListItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx, `SELECT record FROM items ORDER BY cached_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing cached items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scanning cached item: %w", err)
		}
		item, err := decodeItem(record)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteItem removes the cached record. Deleting a missing id is not an error.
func DeleteItem(ctx context.Context, db *sql.DB, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting cached item: %w", err)
	}
	return nil
}

func decodeItem(record string) (model.Item, error) {
	var item model.Item
	if err := json.Unmarshal([]byte(record), &item); err != nil {
		return model.Item{}, fmt.Errorf("decoding cached item: %w", err)
	}
	if item.ImageURLs == nil {
		item.ImageURLs = []string{}
	}
	return item, nil
}

// Cache adapts the item functions to the catalog repository's cache backend.
type Cache struct {
	DB *sql.DB
}

// NewCache returns a cache backed by db. The schema must already be migrated.
func NewCache(db *sql.DB) *Cache {
	return &Cache{DB: db}
}

func (c *Cache) AllItems(ctx context.Context) ([]model.Item, error) {
	items, err := ListItems(ctx, c.DB)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (c *Cache) PutItem(ctx context.Context, item model.Item) error {
	return PutItem(ctx, c.DB, item)
}

func (c *Cache) DeleteItem(ctx context.Context, id string) error {
	return DeleteItem(ctx, c.DB, id)
}
