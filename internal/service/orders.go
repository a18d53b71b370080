package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/divineshop/internal/model"
	"github.com/mmeshcher/divineshop/internal/repository"
	"github.com/mmeshcher/divineshop/internal/validation"
)

// ListOrders возвращает все заказы.
func (s *Service) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.ListOrders(ctx)
}

// GetOrderWithDetails возвращает заказ с покупателем и строками.
func (s *Service) GetOrderWithDetails(ctx context.Context, id int64) (*model.OrderWithDetails, error) {
	return s.repo.GetOrderWithDetails(ctx, id)
}

// ListOrdersByCustomer возвращает историю заказов покупателя.
func (s *Service) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	return s.repo.ListOrdersByCustomer(ctx, customerID)
}

// GetRecentOrders возвращает последние заказы.
func (s *Service) GetRecentOrders(ctx context.Context, limit int) ([]model.OrderWithDetails, error) {
	return s.repo.GetRecentOrders(ctx, clampLimit(limit, DefaultRecentLimit))
}

// CreateOrder создаёт заказ. Итоговая сумма считается по текущим ценам
// каталога; переданная клиентом сумма только сверяется.
func (s *Service) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.Order.CustomerID <= 0 {
		return nil, validation.Invalid("order.customerId", "is required")
	}

	customer, err := s.requireCustomer(ctx, req.Order.CustomerID)
	if err != nil {
		return nil, err
	}

	order, err := s.placeOrder(ctx, model.NewOrder{
		CustomerID: customer.ID,
		Status:     req.Order.Status,
		Items:      req.Items,
		PurchaseActivity: func(o model.Order) model.NewActivity {
			return model.NewActivity{
				CustomerID:  customer.ID,
				Type:        model.ActivityPurchase,
				Description: fmt.Sprintf("%s placed an order", customer.Name),
				Metadata:    metadata(map[string]any{"orderId": o.ID}),
			}
		},
	})
	if err != nil {
		return nil, err
	}

	s.checkClientTotal(order, req.Order.Total)
	return order, nil
}

func (s *Service) requireCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	c, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %d does not exist", ErrInvalidInput, id)
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) placeOrder(ctx context.Context, in model.NewOrder) (*model.Order, error) {
	order, err := s.repo.CreateOrder(ctx, in)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return nil, err
	}

	s.logger.Info("order created",
		zap.Int64("orderID", order.ID),
		zap.Int64("customerID", order.CustomerID),
		zap.String("status", string(order.Status)),
		zap.Float64("total", order.Total),
	)
	return order, nil
}

func (s *Service) checkClientTotal(order *model.Order, clientTotal *float64) {
	if clientTotal == nil {
		return
	}
	if model.ToCents(*clientTotal) != model.ToCents(order.Total) {
		s.logger.Warn("client order total differs from computed total",
			zap.Int64("orderID", order.ID),
			zap.Float64("clientTotal", *clientTotal),
			zap.Float64("total", order.Total),
		)
	}
}

// UpdateOrderStatus переводит заказ в статус status по таблице переходов.
// Повторная установка текущего статуса ничего не меняет.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, validation.Invalid("status", "Invalid order status")
	}

	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, order, status)
}

func (s *Service) transition(ctx context.Context, order *model.Order, to model.OrderStatus) (*model.Order, error) {
	if order.Status == to {
		return order, nil
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order %d is already %s", ErrInvalidTransition, order.ID, order.Status)
	}
	if !order.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, to)
	}

	var activity *model.NewActivity
	if to == model.OrderStatusCompleted {
		name := model.UnknownCustomerName
		if c, err := s.repo.GetCustomer(ctx, order.CustomerID); err == nil {
			name = c.Name
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}

		completed := completedActivity(order.CustomerID, name, order.ID)
		activity = &completed
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, order.ID, order.Status, to, activity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.Int64("orderID", order.ID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(to)),
	)
	return updated, nil
}

func completedActivity(customerID int64, name string, orderID int64) model.NewActivity {
	return model.NewActivity{
		CustomerID:  customerID,
		Type:        model.ActivityOrderCompleted,
		Description: fmt.Sprintf("%s completed purchase", name),
		Metadata:    metadata(map[string]any{"orderId": orderID}),
	}
}
