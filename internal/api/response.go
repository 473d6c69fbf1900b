package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/vitrina/internal/catalog"
	"github.com/erazemk/vitrina/internal/imaging"
	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/storefront"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// errorStatus maps controller and repository errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, storefront.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, storefront.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrLastImage):
		return http.StatusConflict
	case errors.Is(err, model.ErrImageIndex),
		errors.Is(err, model.ErrInvalidItem),
		errors.Is(err, model.ErrMissingImage),
		errors.Is(err, storefront.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, imaging.ErrDecode), errors.Is(err, imaging.ErrEncode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, catalog.ErrWrite), errors.Is(err, storefront.ErrCheckout):
		return http.StatusBadGateway
	case errors.Is(err, storefront.ErrUpload):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError logs server-side failures and writes the mapped status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	jsonError(w, status, err.Error())
}
