package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/vitrina/internal/cart"
)

// CartCookie names the cookie that identifies a client's cart.
const CartCookie = "vitrina_cart"

type cartEntry struct {
	mu       sync.Mutex
	cart     *cart.Cart
	lastSeen time.Time
}

// Carts keeps one in-memory cart per client. Each entry has its own lock so
// carts of different clients never contend.
type Carts struct {
	mu      sync.Mutex
	entries map[string]*cartEntry
	now     func() time.Time
}

// NewCarts returns an empty registry.
func NewCarts() *Carts {
	return &Carts{entries: make(map[string]*cartEntry), now: time.Now}
}

// acquire returns the entry for the request's cookie, issuing a new cookie
// when the client has none or it is unknown.
func (cs *Carts) acquire(w http.ResponseWriter, r *http.Request) *cartEntry {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if c, err := r.Cookie(CartCookie); err == nil {
		if e, ok := cs.entries[c.Value]; ok {
			e.lastSeen = cs.now()
			return e
		}
	}

	id := uuid.NewString()
	e := &cartEntry{cart: cart.New(), lastSeen: cs.now()}
	cs.entries[id] = e
	http.SetCookie(w, &http.Cookie{
		Name:     CartCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return e
}

// Each calls fn with every cart, holding that cart's lock.
func (cs *Carts) Each(fn func(*cart.Cart)) {
	cs.mu.Lock()
	entries := make([]*cartEntry, 0, len(cs.entries))
	for _, e := range cs.entries {
		entries = append(entries, e)
	}
	cs.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		fn(e.cart)
		e.mu.Unlock()
	}
}

// Prune drops carts not used within maxIdle and returns how many were
// dropped.
func (cs *Carts) Prune(maxIdle time.Duration) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cutoff := cs.now().Add(-maxIdle)
	n := 0
	for id, e := range cs.entries {
		if e.lastSeen.Before(cutoff) {
			delete(cs.entries, id)
			n++
		}
	}
	return n
}

// Len returns the number of live carts.
func (cs *Carts) Len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.entries)
}
