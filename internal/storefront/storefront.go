// Package storefront is the application controller: it owns the loaded
// catalog, gates admin operations on the caller's session and drives cart
// mutation and checkout.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erazemk/vitrina/internal/cart"
	"github.com/erazemk/vitrina/internal/describe"
	"github.com/erazemk/vitrina/internal/imaging"
	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/order"
)

// Controller errors.
var (
	ErrForbidden = errors.New("admin session required")
	ErrNotFound  = errors.New("item not found")
	ErrEmptyCart = errors.New("cart is empty")
	ErrUpload    = errors.New("upload failed")
	ErrCheckout  = errors.New("order could not be placed")
)

// Catalog is the persistence contract the controller relies on.
type Catalog interface {
	List(ctx context.Context) ([]model.Item, error)
	Save(ctx context.Context, item model.Item) error
	Remove(ctx context.Context, id string) error
}

// Describer turns an image into a product title and description.
type Describer interface {
	Describe(ctx context.Context, payload []byte, mimeType string) (describe.Details, error)
}

// OrderSubmitter delivers a checkout payload.
type OrderSubmitter interface {
	Submit(ctx context.Context, o order.Order) error
}

// Session is the per-client state passed to every call: whether the client
// holds an admin session, and its cart.
type Session struct {
	Admin bool
	Cart  *cart.Cart
}

// NewSession returns a session with an empty cart.
func NewSession(admin bool) *Session {
	return &Session{Admin: admin, Cart: cart.New()}
}

// Options tune item creation.
type Options struct {
	DefaultPrice   decimal.Decimal
	MaxImageWidth  int
	MaxImageHeight int
}

// DefaultOptions match the storefront's stock settings.
func DefaultOptions() Options {
	return Options{
		DefaultPrice:   decimal.RequireFromString("18.00"),
		MaxImageWidth:  imaging.MaxWidth,
		MaxImageHeight: imaging.MaxHeight,
	}
}

// Controller orchestrates the catalog, the carts and checkout.
type Controller struct {
	catalog   Catalog
	describer Describer
	orders    OrderSubmitter
	opts      Options
	newID     func() string
	carts     CartSet

	mu    sync.RWMutex
	items []model.Item
}

// New creates a controller. Call Load before serving reads.
func New(catalog Catalog, describer Describer, orders OrderSubmitter, opts Options) *Controller {
	return &Controller{
		catalog:   catalog,
		describer: describer,
		orders:    orders,
		opts:      opts,
		newID:     uuid.NewString,
	}
}

// Load replaces the in-memory catalog with the repository's contents.
func (c *Controller) Load(ctx context.Context) error {
	items, err := c.catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("sync error: %w", err)
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}

// Items returns the catalog filtered by a case-insensitive title match.
// Hidden items are only returned to admin sessions.
func (c *Controller) Items(sess *Session, query string) []model.Item {
	query = strings.ToLower(strings.TrimSpace(query))

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []model.Item{}
	for _, it := range c.items {
		if !it.IsSelected && !sess.Admin {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(it.Title), query) {
			continue
		}
		out = append(out, it.Clone())
	}
	return out
}

// Item returns one item as the session is allowed to see it.
func (c *Controller) Item(sess *Session, id string) (model.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.indexLocked(id)
	if i < 0 || (!c.items[i].IsSelected && !sess.Admin) {
		return model.Item{}, ErrNotFound
	}
	return c.items[i].Clone(), nil
}

func (c *Controller) indexLocked(id string) int {
	return slices.IndexFunc(c.items, func(it model.Item) bool { return it.ID == id })
}

func (c *Controller) lookup(id string) (model.Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.indexLocked(id)
	if i < 0 {
		return model.Item{}, false
	}
	return c.items[i].Clone(), true
}

func (c *Controller) replace(item model.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(item.ID); i >= 0 {
		c.items[i] = item.Clone()
	}
}

func (c *Controller) prepend(item model.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = slices.Insert(c.items, 0, item.Clone())
}

func (c *Controller) drop(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = slices.DeleteFunc(c.items, func(it model.Item) bool { return it.ID == id })
}
