package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/divineshop/internal/model"
	"github.com/mmeshcher/divineshop/internal/validation"
)

// ListCustomers возвращает всех покупателей.
func (s *Service) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

// GetCustomer возвращает покупателя.
func (s *Service) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

// SearchCustomers ищет покупателей по подстроке.
func (s *Service) SearchCustomers(ctx context.Context, query string) ([]model.Customer, error) {
	return s.repo.SearchCustomers(ctx, query)
}

// CreateCustomer создаёт покупателя и пишет в журнал запись о новой учётной записи.
func (s *Service) CreateCustomer(ctx context.Context, in model.NewCustomer) (*model.Customer, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	c, err := s.repo.CreateCustomer(ctx, in)
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, model.NewActivity{
		CustomerID:  c.ID,
		Type:        model.ActivityAccountCreated,
		Description: fmt.Sprintf("%s created a new account", c.Name),
	})
	return c, nil
}

// UpdateCustomer применяет частичное обновление покупателя.
func (s *Service) UpdateCustomer(ctx context.Context, id int64, patch model.CustomerPatch) (*model.Customer, error) {
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}
	return s.repo.UpdateCustomer(ctx, id, patch)
}

// DeleteCustomer удаляет покупателя.
func (s *Service) DeleteCustomer(ctx context.Context, id int64) (bool, error) {
	return s.repo.DeleteCustomer(ctx, id)
}

// ListProducts возвращает каталог.
func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.repo.ListProducts(ctx)
}

// GetProduct возвращает товар.
func (s *Service) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// SearchProducts ищет товары по подстроке.
func (s *Service) SearchProducts(ctx context.Context, query string) ([]model.Product, error) {
	return s.repo.SearchProducts(ctx, query)
}

// ListProductsByCategory возвращает товары категории.
func (s *Service) ListProductsByCategory(ctx context.Context, category model.Category) ([]model.Product, error) {
	if !category.Valid() {
		return nil, validation.Invalid("category", "must be one of: game software utility")
	}
	return s.repo.ListProductsByCategory(ctx, category)
}

// CreateProduct создаёт товар.
func (s *Service) CreateProduct(ctx context.Context, in model.NewProduct) (*model.Product, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.repo.CreateProduct(ctx, in)
}

// UpdateProduct применяет частичное обновление товара.
func (s *Service) UpdateProduct(ctx context.Context, id int64, patch model.ProductPatch) (*model.Product, error) {
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}
	return s.repo.UpdateProduct(ctx, id, patch)
}

// DeleteProduct удаляет товар.
func (s *Service) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	return s.repo.DeleteProduct(ctx, id)
}

// ListActivities возвращает журнал активности.
func (s *Service) ListActivities(ctx context.Context) ([]model.Activity, error) {
	return s.repo.ListActivities(ctx)
}

// CreateActivity добавляет запись в журнал.
func (s *Service) CreateActivity(ctx context.Context, in model.NewActivity) (*model.Activity, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.repo.CreateActivity(ctx, in)
}

// GetRecentActivities возвращает последние записи журнала.
func (s *Service) GetRecentActivities(ctx context.Context, limit int) ([]model.ActivityWithCustomer, error) {
	return s.repo.GetRecentActivities(ctx, clampLimit(limit, DefaultRecentLimit))
}

// logActivity пишет запись журнала, не прерывая основную операцию при ошибке.
func (s *Service) logActivity(ctx context.Context, a model.NewActivity) {
	if _, err := s.repo.CreateActivity(ctx, a); err != nil {
		s.logger.Error("failed to record activity",
			zap.Int64("customerID", a.CustomerID),
			zap.String("type", string(a.Type)),
			zap.Error(err),
		)
	}
}
