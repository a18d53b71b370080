package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/divineshop/internal/model"
	"github.com/mmeshcher/divineshop/internal/payment"
	"github.com/mmeshcher/divineshop/internal/repository"
	"github.com/mmeshcher/divineshop/internal/validation"
)

// CreatePaymentIntent создаёт намерение платежа на сумму amount в основных
// единицах валюты магазина.
func (s *Service) CreatePaymentIntent(ctx context.Context, req model.PaymentIntentRequest, idempotencyKey string) (*payment.Intent, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if s.payments == nil || !s.payments.Configured() {
		return nil, ErrPaymentsDisabled
	}

	cents := model.ToCents(req.Amount)
	if cents <= 0 {
		return nil, validation.Invalid("amount", "must be at least 0.01")
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, cents, s.currency, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return intent, nil
}

// ConfirmOrder оформляет заказ по успешно оплаченному намерению платежа.
// Заказ создаётся сразу завершённым: строки, остатки и обе записи журнала
// пишутся одной транзакцией, итог сверяется с оплаченной суммой там же.
func (s *Service) ConfirmOrder(ctx context.Context, req model.CheckoutRequest) (*model.Order, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if s.payments == nil || !s.payments.Configured() {
		return nil, ErrPaymentsDisabled
	}

	intent, err := s.payments.GetPaymentIntent(ctx, req.PaymentIntentID)
	if err != nil {
		var apiErr *payment.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= http.StatusBadRequest && apiErr.StatusCode < http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: %s", ErrPaymentNotCompleted, apiErr.Message)
		}
		return nil, fmt.Errorf("retrieve payment intent: %w", err)
	}
	if intent.Status != payment.StatusSucceeded {
		return nil, ErrPaymentNotCompleted
	}

	expected, err := s.quote(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	if intent.Amount < expected {
		return nil, fmt.Errorf("%w: paid %d, order costs %d", ErrPaymentMismatch, intent.Amount, expected)
	}
	if intent.Currency != "" && !strings.EqualFold(intent.Currency, s.currency) {
		return nil, fmt.Errorf("%w: currency %s", ErrPaymentMismatch, intent.Currency)
	}

	customer, err := s.checkoutCustomer(ctx, req)
	if err != nil {
		return nil, err
	}

	intentID := intent.ID
	if intentID == "" {
		intentID = req.PaymentIntentID
	}

	paid := intent.Amount
	order, err := s.placeOrder(ctx, model.NewOrder{
		CustomerID:      customer.ID,
		Status:          model.OrderStatusCompleted,
		Items:           req.Items,
		PaymentIntentID: &intentID,
		PaidCents:       &paid,
		PurchaseActivity: func(o model.Order) model.NewActivity {
			return model.NewActivity{
				CustomerID:  customer.ID,
				Type:        model.ActivityPurchase,
				Description: fmt.Sprintf("Order #%d placed successfully", o.ID),
				Metadata:    metadata(map[string]any{"orderId": o.ID, "paymentIntentId": intentID}),
			}
		},
		CompletedActivity: func(o model.Order) model.NewActivity {
			return completedActivity(customer.ID, customer.Name, o.ID)
		},
	})
	if errors.Is(err, repository.ErrPaymentShortfall) {
		return nil, fmt.Errorf("%w: %w", ErrPaymentMismatch, err)
	}
	if err != nil {
		return nil, err
	}

	s.checkClientTotal(order, req.Order.Total)
	s.logger.Info("paid order completed",
		zap.Int64("orderID", order.ID),
		zap.String("paymentIntentID", intentID),
	)
	return order, nil
}

// quote считает стоимость позиций по текущим ценам каталога в минимальных единицах валюты.
func (s *Service) quote(ctx context.Context, items []model.NewOrderItem) (int64, error) {
	total := decimal.Zero
	for _, it := range items {
		p, err := s.repo.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return 0, fmt.Errorf("%w: product %d does not exist", ErrInvalidInput, it.ProductID)
			}
			return 0, err
		}
		total = total.Add(model.LineTotal(p.Price, it.Quantity))
	}
	return total.Shift(2).Round(0).IntPart(), nil
}

// checkoutCustomer находит покупателя заказа: по идентификатору из заказа,
// по email из формы оформления или создаёт нового.
func (s *Service) checkoutCustomer(ctx context.Context, req model.CheckoutRequest) (*model.Customer, error) {
	if req.Order.CustomerID > 0 {
		return s.requireCustomer(ctx, req.Order.CustomerID)
	}
	if req.Customer == nil {
		return nil, validation.Invalid("customer", "is required")
	}

	c, err := s.repo.GetCustomerByEmail(ctx, req.Customer.Email)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	c, err = s.repo.CreateCustomer(ctx, *req.Customer)
	if errors.Is(err, repository.ErrCustomerExists) {
		return s.repo.GetCustomerByEmail(ctx, req.Customer.Email)
	}
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, model.NewActivity{
		CustomerID:  c.ID,
		Type:        model.ActivityAccountCreated,
		Description: fmt.Sprintf("%s created an account during checkout", c.Name),
	})
	return c, nil
}
