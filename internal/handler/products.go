package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/divineshop/internal/model"
)

const productNotFound = "Product not found"

// ListProducts обрабатывает GET /api/products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.handleError(w, r, err, productNotFound, "Failed to fetch products")
		return
	}
	h.writeJSON(w, http.StatusOK, products)
}

// GetProduct обрабатывает GET /api/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err, productNotFound, "Failed to fetch product")
		return
	}
	h.writeJSON(w, http.StatusOK, product)
}

// ListProductsByCategory обрабатывает GET /api/products/category/{category}.
func (h *Handler) ListProductsByCategory(w http.ResponseWriter, r *http.Request) {
	category := model.Category(chi.URLParam(r, "category"))

	products, err := h.service.ListProductsByCategory(r.Context(), category)
	if err != nil {
		h.handleError(w, r, err, productNotFound, "Failed to fetch products by category")
		return
	}
	h.writeJSON(w, http.StatusOK, products)
}

// SearchProducts обрабатывает GET /api/products/search/{query}.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.SearchProducts(r.Context(), chi.URLParam(r, "query"))
	if err != nil {
		h.handleError(w, r, err, productNotFound, "Failed to search products")
		return
	}
	h.writeJSON(w, http.StatusOK, products)
}

// CreateProduct обрабатывает POST /api/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in model.NewProduct
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		h.handleError(w, r, err, productNotFound, "Failed to create product")
		return
	}
	h.writeJSON(w, http.StatusCreated, product)
}

// UpdateProduct обрабатывает PUT /api/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var patch model.ProductPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, patch)
	if err != nil {
		h.handleError(w, r, err, productNotFound, "Failed to update product")
		return
	}
	h.writeJSON(w, http.StatusOK, product)
}

// DeleteProduct обрабатывает DELETE /api/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	deleted, err := h.service.DeleteProduct(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err, productNotFound, "Failed to delete product")
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, productNotFound)
		return
	}
	h.writeDeleted(w)
}
