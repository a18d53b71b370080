package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/divineshop/internal/model"
)

const (
	customerNotFound = "Customer not found"
	deletedResponse  = `{"success":true}`
)

// ListCustomers обрабатывает GET /api/customers.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		h.handleError(w, r, err, customerNotFound, "Failed to fetch customers")
		return
	}
	h.writeJSON(w, http.StatusOK, customers)
}

// GetCustomer обрабатывает GET /api/customers/{id}.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	customer, err := h.service.GetCustomer(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err, customerNotFound, "Failed to fetch customer")
		return
	}
	h.writeJSON(w, http.StatusOK, customer)
}

// SearchCustomers обрабатывает GET /api/customers/search/{query}.
func (h *Handler) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.SearchCustomers(r.Context(), chi.URLParam(r, "query"))
	if err != nil {
		h.handleError(w, r, err, customerNotFound, "Failed to search customers")
		return
	}
	h.writeJSON(w, http.StatusOK, customers)
}

// CreateCustomer обрабатывает POST /api/customers.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in model.NewCustomer
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, err := h.service.CreateCustomer(r.Context(), in)
	if err != nil {
		h.handleError(w, r, err, customerNotFound, "Failed to create customer")
		return
	}
	h.writeJSON(w, http.StatusCreated, customer)
}

// UpdateCustomer обрабатывает PUT /api/customers/{id}.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var patch model.CustomerPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, err := h.service.UpdateCustomer(r.Context(), id, patch)
	if err != nil {
		h.handleError(w, r, err, customerNotFound, "Failed to update customer")
		return
	}
	h.writeJSON(w, http.StatusOK, customer)
}

// DeleteCustomer обрабатывает DELETE /api/customers/{id}.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	deleted, err := h.service.DeleteCustomer(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err, customerNotFound, "Failed to delete customer")
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, customerNotFound)
		return
	}
	h.writeDeleted(w)
}

func (h *Handler) writeDeleted(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(deletedResponse))
}
