package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/erazemk/vitrina/internal/cart"
	"github.com/erazemk/vitrina/internal/storefront"
)

// CartHandler handles the per-client cart and checkout.
type CartHandler struct {
	Controller *storefront.Controller
	Carts      *Carts
}

type cartResponse struct {
	Lines []cart.Line     `json:"lines"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type addToCartRequest struct {
	ID    string `json:"id"`
	Delta int    `json:"delta"`
}

func newCartResponse(c *cart.Cart) cartResponse {
	lines := c.Lines()
	if lines == nil {
		lines = []cart.Line{}
	}
	return cartResponse{Lines: lines, Count: c.Count(), Total: c.Total()}
}

// withCart runs fn with the client's cart locked.
func (h *CartHandler) withCart(w http.ResponseWriter, r *http.Request, fn func(*storefront.Session)) {
	e := h.Carts.acquire(w, r)
	e.mu.Lock()
	defer e.mu.Unlock()

	fn(&storefront.Session{Admin: GetClaims(r.Context()) != nil, Cart: e.cart})
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, func(sess *storefront.Session) {
		jsonResponse(w, http.StatusOK, newCartResponse(sess.Cart))
	})
}

// Add handles POST /api/cart/items. A zero delta adds one.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		jsonError(w, http.StatusBadRequest, "item id required")
		return
	}
	if req.Delta == 0 {
		req.Delta = 1
	}

	h.withCart(w, r, func(sess *storefront.Session) {
		if err := h.Controller.AddToCart(sess, req.ID, req.Delta); err != nil {
			writeError(w, r, err)
			return
		}
		jsonResponse(w, http.StatusOK, newCartResponse(sess.Cart))
	})
}

// Remove handles DELETE /api/cart/items/{id}.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, func(sess *storefront.Session) {
		h.Controller.RemoveFromCart(sess, r.PathValue("id"))
		jsonResponse(w, http.StatusOK, newCartResponse(sess.Cart))
	})
}

// Checkout handles POST /api/checkout.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, func(sess *storefront.Session) {
		o, err := h.Controller.Checkout(r.Context(), sess)
		if err != nil {
			writeError(w, r, err)
			return
		}
		jsonResponse(w, http.StatusOK, o)
	})
}
