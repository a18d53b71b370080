package handler

import (
	"errors"
	"net/http"

	"github.com/mmeshcher/divineshop/internal/model"
	"github.com/mmeshcher/divineshop/internal/service"
	"github.com/mmeshcher/divineshop/internal/validation"
)

type paymentIntentResponse struct {
	Success         bool   `json:"success"`
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type orderPlacedResponse struct {
	Success bool         `json:"success"`
	Order   *model.Order `json:"order"`
	Message string       `json:"message"`
}

// CreatePaymentIntent обрабатывает POST /api/payments/create-payment-intent.
// Заголовок Idempotency-Key передаётся платёжному провайдеру как есть.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req model.PaymentIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: "Valid amount is required"})
		return
	}

	intent, err := h.service.CreatePaymentIntent(r.Context(), req, r.Header.Get("Idempotency-Key"))
	var verr *validation.Error
	if errors.As(err, &verr) {
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: "Valid amount is required"})
		return
	}
	if err != nil {
		h.handleEnvelopeError(w, r, err, "Failed to create payment intent")
		return
	}

	h.writeJSON(w, http.StatusOK, paymentIntentResponse{
		Success:         true,
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	})
}

// ConfirmOrder обрабатывает POST /api/payments/confirm-order: заказ создаётся
// только после успешной оплаты.
func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: "Invalid request body"})
		return
	}

	order, err := h.service.ConfirmOrder(r.Context(), req)
	if errors.Is(err, service.ErrPaymentNotCompleted) {
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: "Payment has not been completed"})
		return
	}
	if err != nil {
		h.handleEnvelopeError(w, r, err, "Failed to process order")
		return
	}

	h.writeJSON(w, http.StatusCreated, orderPlacedResponse{
		Success: true,
		Order:   order,
		Message: "Order placed successfully",
	})
}
