package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/erazemk/vitrina/internal/model"
)

func item(id, title, price string) model.Item {
	return model.Item{
		ID:         id,
		Title:      title,
		Price:      decimal.RequireFromString(price),
		ImageURL:   "img-" + id,
		ImageURLs:  []string{},
		IsSelected: true,
	}
}

func TestAddThenRemoveByDelta(t *testing.T) {
	c := New()
	a := item("a", "Lamp", "10")

	c.SetQuantityDelta(a, 2)
	assert.True(t, c.Total().Equal(decimal.NewFromInt(20)), "total %s", c.Total())
	assert.Equal(t, 2, c.Count())

	c.SetQuantityDelta(a, -2)
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, 0, c.Len(), "a line at zero is removed, not kept")
	assert.True(t, c.Total().IsZero())
}

func TestNegativeDeltaOnAbsentItemIsNoop(t *testing.T) {
	c := New()
	c.SetQuantityDelta(item("a", "Lamp", "10"), -1)
	c.SetQuantityDelta(item("a", "Lamp", "10"), 0)
	assert.Equal(t, 0, c.Len())
}

func TestOvershootingDeltaRemovesLine(t *testing.T) {
	c := New()
	c.SetQuantityDelta(item("a", "Lamp", "10"), 1)
	c.SetQuantityDelta(item("a", "Lamp", "10"), -5)
	assert.Equal(t, 0, c.Quantity("a"))
	assert.Equal(t, 0, c.Len())
}

func TestCountDiffersFromDistinctItems(t *testing.T) {
	c := New()
	c.SetQuantityDelta(item("a", "Lamp", "10"), 3)
	c.SetQuantityDelta(item("b", "Chair", "5"), 1)
	assert.Equal(t, 4, c.Count())
	assert.Equal(t, 2, c.Len())
}

func TestRemove(t *testing.T) {
	c := New()
	c.SetQuantityDelta(item("a", "Lamp", "10"), 3)
	c.SetQuantityDelta(item("b", "Chair", "5"), 1)

	c.Remove("a")
	c.Remove("missing")

	require.Len(t, c.Lines(), 1)
	assert.Equal(t, "b", c.Lines()[0].Item.ID)
}

func TestTotalUsesSnapshotPrice(t *testing.T) {
	c := New()
	a := item("a", "Lamp", "10")
	c.SetQuantityDelta(a, 2)

	// A catalog edit that is not reconciled leaves the cart untouched.
	a.Price = decimal.NewFromInt(99)
	a.Title = "Renamed"
	assert.True(t, c.Total().Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "Lamp", c.Lines()[0].Item.Title)

	// Adding more of the edited item keeps the original snapshot.
	c.SetQuantityDelta(a, 1)
	assert.True(t, c.Total().Equal(decimal.NewFromInt(30)))
}

func TestReconcile(t *testing.T) {
	c := New()
	c.SetQuantityDelta(item("a", "Lamp", "10"), 3)

	updated := item("a", "Desk Lamp", "12.5")
	updated.Description = "Now with brass"
	updated.ImageURLs = []string{"second"}
	require.True(t, c.Reconcile(updated))

	line := c.Lines()[0]
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, updated, line.Item)
	assert.True(t, c.Total().Equal(decimal.RequireFromString("37.5")))

	assert.False(t, c.Reconcile(item("missing", "X", "1")))
	assert.Equal(t, 1, c.Len(), "reconcile never adds lines")
}

func TestSnapshotDoesNotAlias(t *testing.T) {
	c := New()
	a := item("a", "Lamp", "10")
	a.ImageURLs = []string{"s1"}
	c.SetQuantityDelta(a, 1)

	a.ImageURLs[0] = "mutated"
	assert.Equal(t, "s1", c.Lines()[0].Item.ImageURLs[0])

	lines := c.Lines()
	lines[0].Quantity = 50
	assert.Equal(t, 1, c.Quantity("a"), "Lines returns copies")
}

func TestClear(t *testing.T) {
	c := New()
	c.SetQuantityDelta(item("a", "Lamp", "10"), 1)
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.Total().IsZero())
}

func TestZeroValueCart(t *testing.T) {
	var c Cart
	c.SetQuantityDelta(item("a", "Lamp", "1"), 1)
	assert.Equal(t, 1, c.Count())
}

// The quantity of each id equals the running sum of its deltas, where the sum
// restarts from zero whenever it drops to zero or below.
func TestQuantityLedgerProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ids := []string{"a", "b", "c"}
		c := New()
		want := map[string]int{}

		steps := rapid.IntRange(0, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			id := rapid.SampledFrom(ids).Draw(t, "id")
			delta := rapid.IntRange(-4, 4).Draw(t, "delta")

			c.SetQuantityDelta(item(id, "Item "+id, "1"), delta)

			if q, ok := want[id]; ok {
				if q+delta <= 0 {
					delete(want, id)
				} else {
					want[id] = q + delta
				}
			} else if delta > 0 {
				want[id] = delta
			}
		}

		count := 0
		for _, id := range ids {
			if c.Quantity(id) != want[id] {
				t.Fatalf("quantity of %s = %d, want %d", id, c.Quantity(id), want[id])
			}
			count += want[id]
		}
		for _, l := range c.Lines() {
			if l.Quantity <= 0 {
				t.Fatalf("line %s stored with quantity %d", l.Item.ID, l.Quantity)
			}
		}
		if c.Count() != count {
			t.Fatalf("Count() = %d, want %d", c.Count(), count)
		}
	})
}

// Total equals the sum of snapshotted price times quantity.
func TestTotalProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New()
		prices := map[string]decimal.Decimal{}

		n := rapid.IntRange(1, 5).Draw(t, "items")
		for i := 0; i < n; i++ {
			id := string(rune('a' + i))
			cents := rapid.Int64Range(0, 100000).Draw(t, "cents")
			qty := rapid.IntRange(1, 20).Draw(t, "qty")

			it := item(id, "Item", "0")
			it.Price = decimal.New(cents, -2)
			prices[id] = it.Price
			c.SetQuantityDelta(it, qty)

			// Later catalog edits must not leak into the cart.
			it.Price = it.Price.Add(decimal.NewFromInt(7))
		}

		want := decimal.Zero
		for _, l := range c.Lines() {
			want = want.Add(prices[l.Item.ID].Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
		if !c.Total().Equal(want) {
			t.Fatalf("Total() = %s, want %s", c.Total(), want)
		}
	})
}
