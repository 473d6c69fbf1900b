package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/erazemk/vitrina/internal/auth"
	"github.com/erazemk/vitrina/internal/store"
)

// AuthHandler handles the admin session endpoints.
type AuthHandler struct {
	DB          *sql.DB
	JWTSecret   string
	Credentials *auth.Credentials
	Limiter     *rate.Limiter
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type sessionResponse struct {
	Admin    bool   `json:"admin"`
	Username string `json:"username,omitempty"`
}

// NewLoginLimiter allows a burst of five attempts, refilled one per 12 seconds.
func NewLoginLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(12*time.Second), 5)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Allow() {
		jsonError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}

	if !h.Credentials.Verify(req.Username, req.Password) {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, req.Username)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("admin logged in", "user", req.Username)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	expiresAt := time.Now().Add(auth.TokenExpiry)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expiresAt); err != nil {
		slog.Error("revoking token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to end session")
		return
	}

	slog.Info("admin logged out", "user", claims.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Session handles GET /api/auth/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonResponse(w, http.StatusOK, sessionResponse{})
		return
	}
	jsonResponse(w, http.StatusOK, sessionResponse{Admin: true, Username: claims.Username})
}
