package api

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/erazemk/vitrina/internal/storefront"
)

// maxUploadSize caps multipart image uploads.
const maxUploadSize = 10 << 20

// ItemsHandler handles catalog endpoints.
type ItemsHandler struct {
	Controller *storefront.Controller
}

type visibilityRequest struct {
	Visible bool `json:"visible"`
}

type moveImageRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func session(r *http.Request) *storefront.Session {
	return &storefront.Session{Admin: GetClaims(r.Context()) != nil}
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.Controller.Items(session(r), r.URL.Query().Get("q"))
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Controller.Item(session(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Export handles GET /api/items/export.
func (h *ItemsHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.Controller.Export(session(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="catalog.json"`)
	w.Write(data)
}

// imageFile opens the "image" part of a multipart upload.
func imageFile(w http.ResponseWriter, r *http.Request) (multipart.File, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return nil, false
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return nil, false
	}
	return file, true
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	file, ok := imageFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	item, err := h.Controller.UploadImage(r.Context(), session(r), file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/items/{id}. The body is applied on top of the
// stored item, so fields it omits keep their current values.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess := session(r)

	req, err := h.Controller.Item(sess, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ID = id

	item, err := h.Controller.UpdateItem(r.Context(), sess, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// SetVisibility handles PUT /api/items/{id}/visibility.
func (h *ItemsHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Controller.SetVisibility(r.Context(), session(r), r.PathValue("id"), req.Visible)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Controller.DeleteItem(r.Context(), session(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// AddImage handles POST /api/items/{id}/images.
func (h *ItemsHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	file, ok := imageFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	item, err := h.Controller.AddImage(r.Context(), session(r), r.PathValue("id"), file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// RemoveImage handles DELETE /api/items/{id}/images/{index}.
func (h *ItemsHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid image index")
		return
	}

	item, err := h.Controller.RemoveImage(r.Context(), session(r), r.PathValue("id"), index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// MoveImage handles PUT /api/items/{id}/images/order.
func (h *ItemsHandler) MoveImage(w http.ResponseWriter, r *http.Request) {
	var req moveImageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Controller.MoveImage(r.Context(), session(r), r.PathValue("id"), req.From, req.To)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}
