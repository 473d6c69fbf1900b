package catalog

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/vitrina/internal/db"
	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/store"
)

var errUnreachable = errors.New("dial tcp: connection refused")

// fakeRemote keeps rows in insertion order; ListItems returns newest first.
type fakeRemote struct {
	rows      []model.Item
	listErr   error
	upsertErr error
	deleteErr error
}

func (f *fakeRemote) ListItems(context.Context) ([]model.Item, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Item, 0, len(f.rows))
	for i := len(f.rows) - 1; i >= 0; i-- {
		out = append(out, f.rows[i].Clone())
	}
	return out, nil
}

func (f *fakeRemote) UpsertItem(_ context.Context, item model.Item) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for i := range f.rows {
		if f.rows[i].ID == item.ID {
			f.rows[i] = item.Clone()
			return nil
		}
	}
	f.rows = append(f.rows, item.Clone())
	return nil
}

func (f *fakeRemote) DeleteItem(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.rows = slices.DeleteFunc(f.rows, func(it model.Item) bool { return it.ID == id })
	return nil
}

// brokenCache fails every operation.
type brokenCache struct {
	deletes int
}

func (c *brokenCache) AllItems(context.Context) ([]model.Item, error) {
	return nil, errors.New("disk I/O error")
}
func (c *brokenCache) PutItem(context.Context, model.Item) error { return errors.New("disk I/O error") }
func (c *brokenCache) DeleteItem(context.Context, string) error {
	c.deletes++
	return errors.New("disk I/O error")
}

func newItem(id, title, price string) model.Item {
	return model.Item{
		ID:          id,
		Title:       title,
		Description: title + " description",
		Price:       decimal.RequireFromString(price),
		ImageURL:    "data:image/png;base64," + id,
		ImageURLs:   []string{"data:image/png;base64,extra-" + id},
		IsSelected:  true,
	}
}

// assertSameItem compares every logical field; prices compare by value.
func assertSameItem(t *testing.T, want, got model.Item) {
	t.Helper()
	assert.True(t, want.Price.Equal(got.Price), "price: want %s, got %s", want.Price, got.Price)
	want.Price, got.Price = decimal.Zero, decimal.Zero
	assert.Equal(t, want, got)
}

func newRepo(t *testing.T, remote *fakeRemote) (*Repository, *store.Cache) {
	t.Helper()
	cache := store.NewCache(db.NewTestDB(t))
	return New(remote, cache), cache
}

func TestSaveThenListRoundTrip(t *testing.T) {
	repo, _ := newRepo(t, &fakeRemote{})
	ctx := context.Background()

	item := newItem("a", "Lamp", "12.50")
	require.NoError(t, repo.Save(ctx, item))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assertSameItem(t, item, items[0])
}

func TestListOrdersNewestFirstAndRefreshesCache(t *testing.T) {
	remote := &fakeRemote{}
	repo, cache := newRepo(t, remote)
	ctx := context.Background()

	remote.rows = []model.Item{newItem("old", "Old", "1"), newItem("new", "New", "2")}

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "new", items[0].ID)
	assert.Equal(t, "old", items[1].ID)

	cached, err := cache.AllItems(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 2, "list writes every remote record through to the cache")
}

func TestListFallsBackToCache(t *testing.T) {
	remote := &fakeRemote{}
	repo, cache := newRepo(t, remote)
	ctx := context.Background()

	local := newItem("local", "Cached Only", "4.00")
	local.ImageURLs = []string{}
	require.NoError(t, cache.PutItem(ctx, local))

	remote.rows = []model.Item{newItem("remote", "Remote Only", "5")}
	remote.listErr = errUnreachable

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1, "fallback returns exactly the cache contents")
	assertSameItem(t, local, items[0])
}

func TestListFallbackFailsWhenCacheFails(t *testing.T) {
	repo := New(&fakeRemote{listErr: errUnreachable}, &brokenCache{})

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")
}

func TestListIntolerantReadPolicy(t *testing.T) {
	cache := store.NewCache(db.NewTestDB(t))
	require.NoError(t, cache.PutItem(context.Background(), newItem("a", "Lamp", "1")))

	policy := Policy{Read: Tolerance{Tolerant: false}, Write: Tolerance{Tolerant: false}}
	repo := NewWithPolicy(&fakeRemote{listErr: errUnreachable}, cache, policy)

	_, err := repo.List(context.Background())
	assert.ErrorIs(t, err, errUnreachable)
}

func TestListSucceedsWhenCacheRefreshFails(t *testing.T) {
	remote := &fakeRemote{rows: []model.Item{newItem("a", "Lamp", "1")}}
	repo := New(remote, &brokenCache{})

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSaveRemoteFailureIsReturnedAfterCacheWrite(t *testing.T) {
	remote := &fakeRemote{upsertErr: errUnreachable}
	repo, cache := newRepo(t, remote)
	ctx := context.Background()

	item := newItem("a", "Lamp", "1")
	err := repo.Save(ctx, item)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, errUnreachable)

	// The local leg already ran; local and remote now disagree.
	cached, _ := cache.AllItems(ctx)
	assert.Len(t, cached, 1)
	assert.Empty(t, remote.rows)
}

func TestSaveCacheFailureIsSwallowed(t *testing.T) {
	remote := &fakeRemote{}
	repo := New(remote, &brokenCache{})

	require.NoError(t, repo.Save(context.Background(), newItem("a", "Lamp", "1")))
	assert.Len(t, remote.rows, 1)
}

func TestSaveUpsertsById(t *testing.T) {
	remote := &fakeRemote{}
	repo, _ := newRepo(t, remote)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newItem("a", "Lamp", "1")))
	require.NoError(t, repo.Save(ctx, newItem("a", "Desk Lamp", "2")))

	require.Len(t, remote.rows, 1)
	assert.Equal(t, "Desk Lamp", remote.rows[0].Title)
}

func TestRemoveDeletesBoth(t *testing.T) {
	remote := &fakeRemote{}
	repo, cache := newRepo(t, remote)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newItem("a", "Lamp", "1")))
	require.NoError(t, repo.Remove(ctx, "a"))

	assert.Empty(t, remote.rows)
	cached, _ := cache.AllItems(ctx)
	assert.Empty(t, cached)
}

func TestRemoveRemoteFailureStillDeletesLocally(t *testing.T) {
	remote := &fakeRemote{}
	repo, cache := newRepo(t, remote)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newItem("a", "Lamp", "1")))
	remote.deleteErr = errUnreachable

	err := repo.Remove(ctx, "a")
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, errUnreachable)

	cached, _ := cache.AllItems(ctx)
	assert.Empty(t, cached, "cache delete is attempted regardless of the remote outcome")
}

func TestRemoveCacheFailureIsSwallowed(t *testing.T) {
	cache := &brokenCache{}
	repo := New(&fakeRemote{}, cache)

	require.NoError(t, repo.Remove(context.Background(), "a"))
	assert.Equal(t, 1, cache.deletes)
}

func TestTolerantWritePolicySwallowsRemoteFailure(t *testing.T) {
	policy := Policy{Read: Tolerance{Tolerant: true}, Write: Tolerance{Tolerant: true}}
	repo := NewWithPolicy(&fakeRemote{upsertErr: errUnreachable, deleteErr: errUnreachable}, store.NewCache(db.NewTestDB(t)), policy)

	assert.NoError(t, repo.Save(context.Background(), newItem("a", "Lamp", "1")))
	assert.NoError(t, repo.Remove(context.Background(), "a"))
}
