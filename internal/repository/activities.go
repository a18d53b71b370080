package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/divineshop/internal/model"
)

const activityColumns = `id, customer_id, type, description, timestamp, metadata`

func scanActivity(row pgx.Row) (*model.Activity, error) {
	var (
		a    model.Activity
		kind string
	)
	if err := row.Scan(&a.ID, &a.CustomerID, &kind, &a.Description, &a.Timestamp, &a.Metadata); err != nil {
		return nil, err
	}
	a.Type = model.ActivityType(kind)
	return &a, nil
}

func insertActivity(ctx context.Context, q querier, in model.NewActivity) (*model.Activity, error) {
	a, err := scanActivity(q.QueryRow(ctx,
		`INSERT INTO activities (customer_id, type, description, metadata)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+activityColumns,
		in.CustomerID, string(in.Type), in.Description, in.Metadata,
	))
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	return a, nil
}

// ListActivities возвращает весь журнал активности.
func (r *PostgresRepository) ListActivities(ctx context.Context) ([]model.Activity, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+activityColumns+` FROM activities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select activities: %w", err)
	}
	defer rows.Close()

	res := []model.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		res = append(res, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// CreateActivity добавляет запись в журнал активности.
func (r *PostgresRepository) CreateActivity(ctx context.Context, in model.NewActivity) (*model.Activity, error) {
	return insertActivity(ctx, r.pool, in)
}

// GetRecentActivities возвращает последние limit записей журнала вместе с покупателями.
func (r *PostgresRepository) GetRecentActivities(ctx context.Context, limit int) ([]model.ActivityWithCustomer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.customer_id, a.type, a.description, a.timestamp, a.metadata,
		        c.id, c.name, c.email, c.phone, c.address, c.created_at
		 FROM activities a
		 LEFT JOIN customers c ON c.id = a.customer_id
		 ORDER BY a.timestamp DESC, a.id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select recent activities: %w", err)
	}
	defer rows.Close()

	res := []model.ActivityWithCustomer{}
	for rows.Next() {
		var (
			a          model.Activity
			kind       string
			cID        *int64
			cName      *string
			cEmail     *string
			cPhone     *string
			cAddress   *string
			cCreatedAt *time.Time
		)
		if err := rows.Scan(&a.ID, &a.CustomerID, &kind, &a.Description, &a.Timestamp, &a.Metadata,
			&cID, &cName, &cEmail, &cPhone, &cAddress, &cCreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Type = model.ActivityType(kind)

		customer := model.PlaceholderCustomer(a.CustomerID)
		if cID != nil {
			customer = model.Customer{
				ID:        *cID,
				Name:      *cName,
				Email:     *cEmail,
				Phone:     cPhone,
				Address:   cAddress,
				CreatedAt: *cCreatedAt,
			}
		}

		res = append(res, model.ActivityWithCustomer{Activity: a, Customer: customer})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}
