package remote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erazemk/vitrina/internal/model"
)

func TestOfflineAlwaysFails(t *testing.T) {
	ctx := context.Background()
	var s Offline

	_, err := s.ListItems(ctx)
	assert.ErrorIs(t, err, ErrOffline)
	assert.ErrorIs(t, s.UpsertItem(ctx, model.Item{ID: "a"}), ErrOffline)
	assert.ErrorIs(t, s.DeleteItem(ctx, "a"), ErrOffline)
}
