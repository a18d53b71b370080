package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/divineshop/internal/model"
)

const customerColumns = `id, name, email, phone, address, created_at`

func scanCustomer(row pgx.Row) (*model.Customer, error) {
	var c model.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCustomers(rows pgx.Rows) ([]model.Customer, error) {
	defer rows.Close()

	res := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		res = append(res, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// ListCustomers возвращает всех покупателей.
func (r *PostgresRepository) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select customers: %w", err)
	}
	return collectCustomers(rows)
}

// GetCustomer возвращает покупателя по идентификатору.
func (r *PostgresRepository) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	return r.getCustomer(ctx, r.pool, id)
}

func (r *PostgresRepository) getCustomer(ctx context.Context, q querier, id int64) (*model.Customer, error) {
	c, err := scanCustomer(q.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// GetCustomerByEmail ищет покупателя по точному совпадению email без учёта регистра.
func (r *PostgresRepository) GetCustomerByEmail(ctx context.Context, email string) (*model.Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE lower(email) = lower($1)`,
		email,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %q: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("get customer by email: %w", err)
	}
	return c, nil
}

// CreateCustomer создаёт покупателя.
func (r *PostgresRepository) CreateCustomer(ctx context.Context, in model.NewCustomer) (*model.Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx,
		`INSERT INTO customers (name, email, phone, address) VALUES ($1, $2, $3, $4)
		 RETURNING `+customerColumns,
		in.Name, in.Email, in.Phone, in.Address,
	))
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, fmt.Errorf("%w: %s", ErrCustomerExists, in.Email)
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

// UpdateCustomer применяет частичное обновление. Идентификатор и дата создания не меняются.
func (r *PostgresRepository) UpdateCustomer(ctx context.Context, id int64, patch model.CustomerPatch) (*model.Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx,
		`UPDATE customers SET
		   name = COALESCE($2, name),
		   email = COALESCE($3, email),
		   phone = COALESCE($4, phone),
		   address = COALESCE($5, address)
		 WHERE id = $1
		 RETURNING `+customerColumns,
		id, patch.Name, patch.Email, patch.Phone, patch.Address,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
		}
		if isUniqueViolation(err, "") {
			return nil, ErrCustomerExists
		}
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

// DeleteCustomer удаляет покупателя и сообщает, существовала ли запись.
func (r *PostgresRepository) DeleteCustomer(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete customer: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SearchCustomers ищет подстроку в имени, email и телефоне без учёта регистра.
func (r *PostgresRepository) SearchCustomers(ctx context.Context, query string) ([]model.Customer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers
		 WHERE name ILIKE $1 OR email ILIKE $1 OR COALESCE(phone, '') ILIKE $1
		 ORDER BY id`,
		likePattern(query),
	)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	return collectCustomers(rows)
}
