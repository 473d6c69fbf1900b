package storefront

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erazemk/vitrina/internal/cart"
	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/order"
)

// CartSet gives the controller access to every live cart so catalog edits
// reach lines held by other sessions. Each must serialize fn with any other
// use of the cart.
type CartSet interface {
	Each(fn func(*cart.Cart))
}

// TrackCarts makes catalog edits reconcile every cart in cs instead of only
// the caller's.
func (c *Controller) TrackCarts(cs CartSet) {
	c.carts = cs
}

func (c *Controller) eachCart(sess *Session, fn func(*cart.Cart)) {
	if c.carts != nil {
		c.carts.Each(fn)
		return
	}
	if sess.Cart != nil {
		fn(sess.Cart)
	}
}

// AddToCart applies delta to the session's cart line for id. Items hidden
// from the session cannot be added, but an existing line can always be
// reduced.
func (c *Controller) AddToCart(sess *Session, id string, delta int) error {
	item, err := c.Item(sess, id)
	if err != nil {
		if delta < 0 && sess.Cart.Quantity(id) > 0 {
			sess.Cart.SetQuantityDelta(model.Item{ID: id}, delta)
			return nil
		}
		return err
	}
	sess.Cart.SetQuantityDelta(item, delta)
	return nil
}

// RemoveFromCart drops the session's cart line for id.
func (c *Controller) RemoveFromCart(sess *Session, id string) {
	sess.Cart.Remove(id)
}

// NewOrder builds the checkout payload from the cart's snapshots.
func NewOrder(ct *cart.Cart) order.Order {
	lines := ct.Lines()
	o := order.Order{Total: ct.Total(), Items: make([]order.Line, 0, len(lines))}
	for _, l := range lines {
		o.Items = append(o.Items, order.Line{Name: l.Item.Title, Quantity: l.Quantity})
	}
	return o
}

// Checkout submits the session's cart. The cart is cleared only after the
// order was delivered; on failure it is kept so the client can retry.
func (c *Controller) Checkout(ctx context.Context, sess *Session) (order.Order, error) {
	if sess.Cart.Len() == 0 {
		return order.Order{}, ErrEmptyCart
	}

	o := NewOrder(sess.Cart)
	if err := c.orders.Submit(ctx, o); err != nil {
		slog.Error("checkout failed", "items", len(o.Items), "error", err)
		return order.Order{}, fmt.Errorf("%w: %w", ErrCheckout, err)
	}

	sess.Cart.Clear()
	slog.Info("order placed", "items", len(o.Items), "total", o.Total.StringFixed(2))
	return o, nil
}
