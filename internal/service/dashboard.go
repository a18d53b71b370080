package service

import (
	"context"

	"github.com/mmeshcher/divineshop/internal/model"
)

// GetDashboardMetrics возвращает показатели панели управления. Новыми считаются
// покупатели за последние 30 дней от момента вызова.
func (s *Service) GetDashboardMetrics(ctx context.Context) (*model.DashboardMetrics, error) {
	return s.repo.GetDashboardMetrics(ctx, s.now().Add(-newCustomersWindow))
}

// GetProductCategoryStats возвращает доли категорий каталога.
func (s *Service) GetProductCategoryStats(ctx context.Context) ([]model.ProductCategoryStat, error) {
	return s.repo.GetProductCategoryStats(ctx)
}

// GetPopularProducts возвращает самые продаваемые товары.
func (s *Service) GetPopularProducts(ctx context.Context, limit int) ([]model.PopularProduct, error) {
	return s.repo.GetPopularProducts(ctx, clampLimit(limit, DefaultPopularLimit))
}
