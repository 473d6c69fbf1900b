package storefront

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/erazemk/vitrina/internal/model"
)

//go:embed seed.json
var seedJSON []byte

// SeedItems returns the starter catalog.
func SeedItems() ([]model.Item, error) {
	var items []model.Item
	if err := json.Unmarshal(seedJSON, &items); err != nil {
		return nil, fmt.Errorf("decoding seed items: %w", err)
	}
	return items, nil
}

// Seed saves the starter catalog when the loaded catalog is empty. It reports
// how many items were stored.
func (c *Controller) Seed(ctx context.Context) (int, error) {
	c.mu.RLock()
	empty := len(c.items) == 0
	c.mu.RUnlock()
	if !empty {
		return 0, nil
	}

	items, err := SeedItems()
	if err != nil {
		return 0, err
	}

	stored := make([]model.Item, 0, len(items))
	for _, it := range items {
		if err := c.catalog.Save(ctx, it); err != nil {
			return len(stored), fmt.Errorf("seeding item %s: %w", it.ID, err)
		}
		stored = append(stored, it)
	}

	c.mu.Lock()
	c.items = append(stored, c.items...)
	c.mu.Unlock()

	slog.Info("catalog seeded", "items", len(stored))
	return len(stored), nil
}
