package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type ProductRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewProductRepository(d *DB) *ProductRepository {
	return &ProductRepository{db: d.db, now: time.Now}
}

func (r *ProductRepository) Name() string { return "sql" }

const productColumns = `id, name, local_name, category, price, description, benefits, image_url`

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, err
}

func (r *ProductRepository) Insert(ctx context.Context, p domain.Product) error {
	query := `INSERT INTO products (id, name, local_name, category, price, description, benefits, image_url, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.LocalName, string(p.Category), p.Price,
		p.Description, p.Benefits, p.ImageURL, unixMilli(r.now()))
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p domain.Product) error {
	query := `UPDATE products
	          SET name = $1, local_name = $2, category = $3, price = $4, description = $5, benefits = $6, image_url = $7
	          WHERE id = $8`

	res, err := r.db.ExecContext(ctx, query,
		p.Name, p.LocalName, string(p.Category), p.Price,
		p.Description, p.Benefits, p.ImageURL, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return expectRow(res)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (domain.Product, error) {
	var (
		p        domain.Product
		category string
	)
	err := s.Scan(&p.ID, &p.Name, &p.LocalName, &category, &p.Price, &p.Description, &p.Benefits, &p.ImageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, err
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("failed to scan product: %w", err)
	}
	p.Category = domain.Category(category)
	return p, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
