// Package catalog unifies the remote catalog store and the local cache behind
// one read/write contract: reads fall back to the cache, writes must reach the
// remote store.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/vitrina/internal/model"
)

// Remote is the source-of-truth store.
type Remote interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	UpsertItem(ctx context.Context, item model.Item) error
	DeleteItem(ctx context.Context, id string) error
}

// Cache is the local offline copy, keyed by item id.
type Cache interface {
	AllItems(ctx context.Context) ([]model.Item, error)
	PutItem(ctx context.Context, item model.Item) error
	DeleteItem(ctx context.Context, id string) error
}

// Tolerance says whether a failed remote leg is logged and swallowed
// (Tolerant) or returned to the caller.
type Tolerance struct {
	Tolerant bool
}

// Policy sets the remote failure tolerance per operation kind.
type Policy struct {
	Read  Tolerance
	Write Tolerance
}

// DefaultPolicy tolerates remote read failures (serving the cache) and
// rejects remote write failures.
var DefaultPolicy = Policy{
	Read:  Tolerance{Tolerant: true},
	Write: Tolerance{Tolerant: false},
}

// ErrWrite marks a save or remove whose remote leg failed. The cache may
// already hold the new state.
var ErrWrite = errors.New("catalog write failed")

// Repository is the catalog's read/write contract.
type Repository struct {
	remote Remote
	cache  Cache
	policy Policy
	tracer trace.Tracer
}

// New returns a repository over the two backends using DefaultPolicy.
func New(remote Remote, cache Cache) *Repository {
	return NewWithPolicy(remote, cache, DefaultPolicy)
}

// NewWithPolicy returns a repository with an explicit tolerance policy.
func NewWithPolicy(remote Remote, cache Cache, policy Policy) *Repository {
	return &Repository{
		remote: remote,
		cache:  cache,
		policy: policy,
		tracer: otel.Tracer("vitrina/catalog"),
	}
}

// List returns the remote catalog, newest first, refreshing the cache with
// every returned record. When the remote store fails and reads are tolerant,
// the whole cache is returned instead, in no guaranteed order.
func (r *Repository) List(ctx context.Context) ([]model.Item, error) {
	ctx, span := r.tracer.Start(ctx, "catalog.list")
	defer span.End()

	items, err := r.remote.ListItems(ctx)
	if err == nil {
		for _, item := range items {
			if cerr := r.cache.PutItem(ctx, item); cerr != nil {
				slog.Warn("cache refresh failed", "item", item.ID, "error", cerr)
			}
		}
		span.SetAttributes(attribute.Int("items.count", len(items)), attribute.Bool("cache.fallback", false))
		return items, nil
	}

	if !r.policy.Read.Tolerant {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remote read failed")
		return nil, fmt.Errorf("listing catalog: %w", err)
	}

	slog.Warn("remote catalog unavailable, serving local cache", "error", err)
	span.SetAttributes(attribute.Bool("cache.fallback", true))

	cached, cerr := r.cache.AllItems(ctx)
	if cerr != nil {
		span.RecordError(cerr)
		span.SetStatus(codes.Error, "cache read failed")
		return nil, fmt.Errorf("listing catalog: remote: %v; cache: %w", err, cerr)
	}
	span.SetAttributes(attribute.Int("items.count", len(cached)))
	return cached, nil
}

// Save writes item to the cache (best-effort) and then upserts it remotely.
// A failed remote upsert is returned wrapped in ErrWrite, even though the
// cache already holds the new record.
func (r *Repository) Save(ctx context.Context, item model.Item) error {
	ctx, span := r.tracer.Start(ctx, "catalog.save", trace.WithAttributes(attribute.String("item.id", item.ID)))
	defer span.End()

	if err := r.cache.PutItem(ctx, item); err != nil {
		slog.Warn("local cache write skipped", "item", item.ID, "error", err)
	}

	if err := r.remote.UpsertItem(ctx, item); err != nil {
		return r.writeFailed(span, "saving", item.ID, err)
	}
	return nil
}

// Remove deletes the item remotely and then from the cache. The cache delete
// is attempted even when the remote delete fails; the remote error is still
// returned.
func (r *Repository) Remove(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "catalog.remove", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	remoteErr := r.remote.DeleteItem(ctx, id)

	if err := r.cache.DeleteItem(ctx, id); err != nil {
		slog.Warn("local cache delete skipped", "item", id, "error", err)
	}

	if remoteErr != nil {
		return r.writeFailed(span, "removing", id, remoteErr)
	}
	return nil
}

func (r *Repository) writeFailed(span trace.Span, op, id string, err error) error {
	if r.policy.Write.Tolerant {
		slog.Warn("remote catalog write failed, keeping local state", "op", op, "item", id, "error", err)
		return nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "remote write failed")
	return fmt.Errorf("%w: %s item %s: %w", ErrWrite, op, id, err)
}
