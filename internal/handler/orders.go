package handler

import (
	"net/http"

	"github.com/mmeshcher/divineshop/internal/model"
)

const orderNotFound = "Order not found"

// ListOrders обрабатывает GET /api/orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.handleError(w, r, err, orderNotFound, "Failed to fetch orders")
		return
	}
	h.writeJSON(w, http.StatusOK, orders)
}

// GetOrder обрабатывает GET /api/orders/{id} и возвращает заказ с покупателем
// и позициями.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.service.GetOrderWithDetails(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err, orderNotFound, "Failed to fetch order")
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

// GetRecentOrders обрабатывает GET /api/orders/recent/{limit}.
func (h *Handler) GetRecentOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.GetRecentOrders(r.Context(), pathLimit(r))
	if err != nil {
		h.handleError(w, r, err, orderNotFound, "Failed to fetch recent orders")
		return
	}
	h.writeJSON(w, http.StatusOK, orders)
}

// ListCustomerOrders обрабатывает GET /api/orders/customer/{customerId}.
func (h *Handler) ListCustomerOrders(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.pathID(w, r, "customerId")
	if !ok {
		return
	}

	orders, err := h.service.ListOrdersByCustomer(r.Context(), customerID)
	if err != nil {
		h.handleError(w, r, err, customerNotFound, "Failed to fetch customer orders")
		return
	}
	h.writeJSON(w, http.StatusOK, orders)
}

// CreateOrder обрабатывает POST /api/orders. Цены позиций берутся из каталога.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.CreateOrder(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err, productNotFound, "Failed to create order")
		return
	}
	h.writeJSON(w, http.StatusCreated, order)
}

// UpdateOrderStatus обрабатывает PUT /api/orders/{id}/status.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req model.StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		h.handleError(w, r, err, orderNotFound, "Failed to update order status")
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}
