package api

import (
	"database/sql"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/erazemk/vitrina/internal/auth"
	"github.com/erazemk/vitrina/internal/storefront"
)

// Config wires the router to its dependencies.
type Config struct {
	DB           *sql.DB
	JWTSecret    string
	Credentials  *auth.Credentials
	Controller   *storefront.Controller
	Carts        *Carts
	LoginLimiter *rate.Limiter
}

// NewRouter creates the API router with all endpoints registered. It makes
// the controller reconcile catalog edits into the router's carts.
func NewRouter(cfg Config) http.Handler {
	if cfg.Carts == nil {
		cfg.Carts = NewCarts()
	}
	if cfg.LoginLimiter == nil {
		cfg.LoginLimiter = NewLoginLimiter()
	}
	cfg.Controller.TrackCarts(cfg.Carts)

	mux := http.NewServeMux()

	authHandler := &AuthHandler{
		DB:          cfg.DB,
		JWTSecret:   cfg.JWTSecret,
		Credentials: cfg.Credentials,
		Limiter:     cfg.LoginLimiter,
	}
	itemsHandler := &ItemsHandler{Controller: cfg.Controller}
	cartHandler := &CartHandler{Controller: cfg.Controller, Carts: cfg.Carts}

	admin := func(h http.HandlerFunc) http.Handler { return RequireAdmin(h) }

	// Session.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/session", authHandler.Session)

	// Catalog: read (all), write (admin).
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.Handle("GET /api/items/export", admin(itemsHandler.Export))
	mux.Handle("POST /api/items", admin(itemsHandler.Create))
	mux.Handle("PUT /api/items/{id}", admin(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", admin(itemsHandler.Delete))
	mux.Handle("PUT /api/items/{id}/visibility", admin(itemsHandler.SetVisibility))
	mux.Handle("POST /api/items/{id}/images", admin(itemsHandler.AddImage))
	mux.Handle("DELETE /api/items/{id}/images/{index}", admin(itemsHandler.RemoveImage))
	mux.Handle("PUT /api/items/{id}/images/order", admin(itemsHandler.MoveImage))

	// Cart and checkout (all).
	mux.HandleFunc("GET /api/cart", cartHandler.Get)
	mux.HandleFunc("POST /api/cart/items", cartHandler.Add)
	mux.HandleFunc("DELETE /api/cart/items/{id}", cartHandler.Remove)
	mux.HandleFunc("POST /api/checkout", cartHandler.Checkout)

	return SessionMiddleware(cfg.JWTSecret, cfg.DB)(mux)
}
