package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/divineshop/internal/model"
)

const (
	orderColumns = `id, customer_id, order_date, status, total, payment_intent_id`
	itemColumns  = `id, order_id, product_id, quantity, price`
)

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o      model.Order
		status string
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &o.OrderDate, &status, &o.Total, &o.PaymentIntentID); err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	res := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		res = append(res, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// ListOrders возвращает все заказы.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return collectOrders(rows)
}

// ListOrdersByCustomer возвращает заказы покупателя, новые первыми.
func (r *PostgresRepository) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE customer_id = $1
		 ORDER BY order_date DESC, id DESC`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select customer orders: %w", err)
	}
	return collectOrders(rows)
}

// GetOrder возвращает заказ без деталей.
func (r *PostgresRepository) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// GetOrderWithDetails возвращает заказ с покупателем и строками. Удалённые покупатель
// и товары заменяются заглушками.
func (r *PostgresRepository) GetOrderWithDetails(ctx context.Context, id int64) (*model.OrderWithDetails, error) {
	o, err := r.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.loadDetails(ctx, r.pool, *o)
}

func (r *PostgresRepository) loadDetails(ctx context.Context, q querier, o model.Order) (*model.OrderWithDetails, error) {
	customer, err := r.getCustomer(ctx, q, o.CustomerID)
	switch {
	case errors.Is(err, ErrNotFound):
		placeholder := model.PlaceholderCustomer(o.CustomerID)
		customer = &placeholder
	case err != nil:
		return nil, err
	}

	rows, err := q.Query(ctx,
		`SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price,
		        p.id, p.name, p.description, p.category, p.price, p.stock, p.image, p.created_at
		 FROM order_items oi
		 LEFT JOIN products p ON p.id = oi.product_id
		 WHERE oi.order_id = $1
		 ORDER BY oi.id`,
		o.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	items := []model.OrderItemWithProduct{}
	for rows.Next() {
		var (
			it         model.OrderItem
			pID        *int64
			pName      *string
			pDesc      *string
			pCategory  *string
			pPrice     *float64
			pStock     *int64
			pImage     *string
			pCreatedAt *time.Time
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price,
			&pID, &pName, &pDesc, &pCategory, &pPrice, &pStock, &pImage, &pCreatedAt); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}

		product := model.PlaceholderProduct(it.ProductID)
		if pID != nil {
			product = model.Product{
				ID:          *pID,
				Name:        *pName,
				Description: pDesc,
				Category:    model.Category(*pCategory),
				Price:       *pPrice,
				Stock:       *pStock,
				Image:       pImage,
				CreatedAt:   *pCreatedAt,
			}
		}

		items = append(items, model.OrderItemWithProduct{OrderItem: it, Product: product})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &model.OrderWithDetails{Order: o, Customer: *customer, Items: items}, nil
}

// CreateOrder атомарно создаёт заказ, его строки, списывает остатки и пишет
// запись журнала о покупке. Цены строк и итог заказа берутся из каталога.
func (r *PostgresRepository) CreateOrder(ctx context.Context, in model.NewOrder) (*model.Order, error) {
	status := in.Status
	if status == "" {
		status = model.OrderStatusPending
	}

	var created model.Order
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		order, err := scanOrder(tx.QueryRow(ctx,
			`INSERT INTO orders (customer_id, status, total, payment_intent_id)
			 VALUES ($1, $2, 0, $3)
			 RETURNING `+orderColumns,
			in.CustomerID, string(status), in.PaymentIntentID,
		))
		if err != nil {
			if isUniqueViolation(err, "") {
				return ErrPaymentAlreadyUsed
			}
			return fmt.Errorf("insert order: %w", err)
		}

		prices, err := r.reserveStock(ctx, tx, in.Items)
		if err != nil {
			return err
		}

		items := make([]model.OrderItem, 0, len(in.Items))
		for _, line := range in.Items {
			var it model.OrderItem
			err := tx.QueryRow(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity, price)
				 VALUES ($1, $2, $3, $4)
				 RETURNING `+itemColumns,
				order.ID, line.ProductID, line.Quantity, prices[line.ProductID],
			).Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
			items = append(items, it)
		}

		order.Total = model.OrderTotal(items)
		if in.PaidCents != nil && model.ToCents(order.Total) > *in.PaidCents {
			return fmt.Errorf("order total %.2f, paid %d: %w", order.Total, *in.PaidCents, ErrPaymentShortfall)
		}
		if _, err := tx.Exec(ctx, `UPDATE orders SET total = $2 WHERE id = $1`, order.ID, order.Total); err != nil {
			return fmt.Errorf("set order total: %w", err)
		}

		for _, activity := range []func(model.Order) model.NewActivity{in.PurchaseActivity, in.CompletedActivity} {
			if activity == nil {
				continue
			}
			if _, err := insertActivity(ctx, tx, activity(*order)); err != nil {
				return err
			}
		}

		created = *order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// reserveStock списывает остатки по товарам в порядке возрастания идентификатора
// и возвращает текущие цены. Строки одного товара суммируются.
func (r *PostgresRepository) reserveStock(ctx context.Context, tx pgx.Tx, lines []model.NewOrderItem) (map[int64]float64, error) {
	qty := make(map[int64]int64, len(lines))
	for _, line := range lines {
		qty[line.ProductID] += line.Quantity
	}

	ids := make([]int64, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	query := `UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2 RETURNING price`
	if r.opts.StockPolicy == model.StockPolicyAllowNegative {
		query = `UPDATE products SET stock = stock - $2 WHERE id = $1 RETURNING price`
	}

	prices := make(map[int64]float64, len(ids))
	for _, id := range ids {
		var price float64
		err := tx.QueryRow(ctx, query, id, qty[id]).Scan(&price)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("decrement stock: %w", err)
			}

			ok, existsErr := r.exists(ctx, tx, "products", id)
			if existsErr != nil {
				return nil, existsErr
			}
			if !ok {
				return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
			}
			return nil, fmt.Errorf("product %d: %w", id, ErrInsufficientStock)
		}
		prices[id] = price
	}

	return prices, nil
}

// UpdateOrderStatus переводит заказ из статуса from в статус to, если статус
// не изменился параллельно. activity, если задан, сохраняется в той же транзакции.
func (r *PostgresRepository) UpdateOrderStatus(
	ctx context.Context,
	id int64,
	from, to model.OrderStatus,
	activity *model.NewActivity,
) (*model.Order, error) {
	var updated model.Order
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		order, err := scanOrder(tx.QueryRow(ctx,
			`UPDATE orders SET status = $3 WHERE id = $1 AND status = $2 RETURNING `+orderColumns,
			id, string(from), string(to),
		))
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("update order status: %w", err)
			}

			ok, existsErr := r.exists(ctx, tx, "orders", id)
			if existsErr != nil {
				return existsErr
			}
			if !ok {
				return fmt.Errorf("order %d: %w", id, ErrNotFound)
			}
			return fmt.Errorf("order %d: %w", id, ErrStatusConflict)
		}

		if activity != nil {
			if _, err := insertActivity(ctx, tx, *activity); err != nil {
				return err
			}
		}

		updated = *order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// GetRecentOrders возвращает последние limit заказов с деталями.
func (r *PostgresRepository) GetRecentOrders(ctx context.Context, limit int) ([]model.OrderWithDetails, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY order_date DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select recent orders: %w", err)
	}

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}

	res := make([]model.OrderWithDetails, 0, len(orders))
	for _, o := range orders {
		d, err := r.loadDetails(ctx, r.pool, o)
		if err != nil {
			return nil, err
		}
		res = append(res, *d)
	}
	return res, nil
}
