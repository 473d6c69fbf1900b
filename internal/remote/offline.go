package remote

import (
	"context"
	"errors"

	"github.com/erazemk/vitrina/internal/model"
)

// ErrOffline is returned by every Offline operation.
var ErrOffline = errors.New("remote store not configured")

// Offline stands in for the remote store when no database URL is set. Reads
// fall back to the local cache; writes fail.
type Offline struct{}

func (Offline) ListItems(context.Context) ([]model.Item, error) { return nil, ErrOffline }

func (Offline) UpsertItem(context.Context, model.Item) error { return ErrOffline }

func (Offline) DeleteItem(context.Context, string) error { return ErrOffline }
