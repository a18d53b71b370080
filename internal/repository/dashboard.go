package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mmeshcher/divineshop/internal/model"
)

// GetDashboardMetrics считает показатели панели управления. Новыми считаются
// покупатели, созданные позже since.
func (r *PostgresRepository) GetDashboardMetrics(ctx context.Context, since time.Time) (*model.DashboardMetrics, error) {
	var m model.DashboardMetrics

	err := r.pool.QueryRow(ctx,
		`SELECT
		   COALESCE((SELECT SUM(total) FROM orders WHERE status = $1), 0),
		   (SELECT COUNT(*) FROM customers WHERE created_at > $2),
		   (SELECT COUNT(*) FROM orders WHERE status = $3)`,
		string(model.OrderStatusCompleted), since, string(model.OrderStatusPending),
	).Scan(&m.TotalSales, &m.NewCustomers, &m.PendingOrders)
	if err != nil {
		return nil, fmt.Errorf("select dashboard metrics: %w", err)
	}
	m.TotalSales = model.SumMoney(m.TotalSales)

	top, err := r.GetPopularProducts(ctx, 1)
	if err != nil {
		return nil, err
	}

	m.TopProduct = model.TopProduct{Name: model.NoTopProductName}
	if len(top) > 0 {
		m.TopProduct = model.TopProduct{Name: top[0].Name, UnitsSold: top[0].Sales}
	}

	return &m, nil
}

// GetProductCategoryStats возвращает доли категорий в каталоге.
func (r *PostgresRepository) GetProductCategoryStats(ctx context.Context) ([]model.ProductCategoryStat, error) {
	rows, err := r.pool.Query(ctx, `SELECT category, COUNT(*) FROM products GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("select category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Category]int64, len(model.Categories))
	for rows.Next() {
		var (
			category string
			n        int64
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[model.Category(category)] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return model.CategoryStats(counts), nil
}

// GetPopularProducts возвращает limit товаров с наибольшим числом проданных единиц.
func (r *PostgresRepository) GetPopularProducts(ctx context.Context, limit int) ([]model.PopularProduct, error) {
	order := `sales DESC, oi.product_id ASC`
	if r.opts.TieBreak == model.TieBreakName {
		order = `sales DESC, name ASC, oi.product_id ASC`
	}

	rows, err := r.pool.Query(ctx,
		`SELECT oi.product_id,
		        COALESCE(p.name, $2) AS name,
		        COALESCE(p.category, $3),
		        SUM(oi.quantity) AS sales
		 FROM order_items oi
		 LEFT JOIN products p ON p.id = oi.product_id
		 GROUP BY oi.product_id, p.name, p.category
		 ORDER BY `+order+`
		 LIMIT $1`,
		limit, model.UnknownProductName, model.UnknownCategory,
	)
	if err != nil {
		return nil, fmt.Errorf("select popular products: %w", err)
	}
	defer rows.Close()

	res := []model.PopularProduct{}
	for rows.Next() {
		var p model.PopularProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Sales); err != nil {
			return nil, fmt.Errorf("scan popular product: %w", err)
		}
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}
