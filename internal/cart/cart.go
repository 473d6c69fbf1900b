// Package cart is the session's quantity ledger. Lines carry a snapshot of the
// item taken when it was added; later catalog edits reach a line only through
// Reconcile.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/erazemk/vitrina/internal/model"
)

// Line is one cart entry. Quantity is always at least 1.
type Line struct {
	Item     model.Item `json:"item"`
	Quantity int        `json:"quantity"`
}

// Subtotal is the snapshotted price times the quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds lines in the order they were first added. The zero value is an
// empty cart. A Cart is not safe for concurrent use.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

func (c *Cart) index(id string) int {
	return slices.IndexFunc(c.lines, func(l Line) bool { return l.Item.ID == id })
}

// SetQuantityDelta applies delta to the line for item. A line whose quantity
// drops to zero or below is removed. An absent item is added with quantity
// delta when delta is positive; otherwise nothing happens.
func (c *Cart) SetQuantityDelta(item model.Item, delta int) {
	if i := c.index(item.ID); i >= 0 {
		q := c.lines[i].Quantity + delta
		if q <= 0 {
			c.lines = slices.Delete(c.lines, i, i+1)
			return
		}
		c.lines[i].Quantity = q
		return
	}
	if delta > 0 {
		c.lines = append(c.lines, Line{Item: item.Clone(), Quantity: delta})
	}
}

// Remove drops the line for id, if any.
func (c *Cart) Remove(id string) {
	if i := c.index(id); i >= 0 {
		c.lines = slices.Delete(c.lines, i, i+1)
	}
}

// Reconcile replaces the snapshot of the line for item.ID with item, keeping
// its quantity. It reports whether a line was updated.
func (c *Cart) Reconcile(item model.Item) bool {
	i := c.index(item.ID)
	if i < 0 {
		return false
	}
	c.lines[i].Item = item.Clone()
	return true
}

// Total sums snapshotted price times quantity over all lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Count sums the quantities of all lines.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Quantity returns the quantity held for id, 0 if absent.
func (c *Cart) Quantity(id string) int {
	if i := c.index(id); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// Len returns the number of distinct items.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Lines returns copies of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, l := range c.lines {
		out[i] = Line{Item: l.Item.Clone(), Quantity: l.Quantity}
	}
	return out
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}
