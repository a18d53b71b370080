package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/divineshop/internal/model"
)

const productColumns = `id, name, description, category, price, stock, image, created_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p        model.Product
		category string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &category, &p.Price, &p.Stock, &p.Image, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Category = model.Category(category)
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	res := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		res = append(res, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// ListProducts возвращает весь каталог.
func (r *PostgresRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return collectProducts(rows)
}

// GetProduct возвращает товар по идентификатору.
func (r *PostgresRepository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// CreateProduct создаёт товар. Остаток по умолчанию равен нулю.
func (r *PostgresRepository) CreateProduct(ctx context.Context, in model.NewProduct) (*model.Product, error) {
	var stock int64
	if in.Stock != nil {
		stock = *in.Stock
	}

	p, err := scanProduct(r.pool.QueryRow(ctx,
		`INSERT INTO products (name, description, category, price, stock, image)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+productColumns,
		in.Name, in.Description, string(in.Category), in.Price, stock, in.Image,
	))
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// UpdateProduct применяет частичное обновление товара.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, id int64, patch model.ProductPatch) (*model.Product, error) {
	var category *string
	if patch.Category != nil {
		s := string(*patch.Category)
		category = &s
	}

	p, err := scanProduct(r.pool.QueryRow(ctx,
		`UPDATE products SET
		   name = COALESCE($2, name),
		   description = COALESCE($3, description),
		   category = COALESCE($4, category),
		   price = COALESCE($5, price),
		   stock = COALESCE($6, stock),
		   image = COALESCE($7, image)
		 WHERE id = $1
		 RETURNING `+productColumns,
		id, patch.Name, patch.Description, category, patch.Price, patch.Stock, patch.Image,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// DeleteProduct удаляет товар. Строки заказов сохраняются и ссылаются на заглушку.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SearchProducts ищет подстроку в названии и описании без учёта регистра.
func (r *PostgresRepository) SearchProducts(ctx context.Context, query string) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE name ILIKE $1 OR COALESCE(description, '') ILIKE $1
		 ORDER BY id`,
		likePattern(query),
	)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return collectProducts(rows)
}

// ListProductsByCategory возвращает товары указанной категории.
func (r *PostgresRepository) ListProductsByCategory(ctx context.Context, category model.Category) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE category = $1 ORDER BY id`,
		string(category),
	)
	if err != nil {
		return nil, fmt.Errorf("select products by category: %w", err)
	}
	return collectProducts(rows)
}
