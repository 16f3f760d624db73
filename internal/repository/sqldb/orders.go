package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(d *DB) *OrderRepository {
	return &OrderRepository{db: d.db}
}

func (r *OrderRepository) Name() string { return "sql" }

const orderColumns = `id, idempotency_key, session_id, customer_name, customer_email, customer_phone,
	customer_address, lines, total_amount, currency, payment_method, status, created_at`

// Create stores a new order. A reused id or idempotency key yields
// domain.ErrConflict.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	linesJSON, err := json.Marshal(order.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal order lines: %w", err)
	}

	query := `INSERT INTO orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, insertErr := r.db.ExecContext(ctx, query,
		order.ID,
		nullString(order.IdempotencyKey),
		order.SessionID,
		order.Customer.Name,
		order.Customer.Email,
		order.Customer.Phone,
		order.Customer.Address,
		string(linesJSON),
		order.TotalAmount,
		order.Currency,
		order.PaymentMethod,
		string(order.Status),
		unixMilli(order.CreatedAt))

	if insertErr != nil {
		if isUniqueViolation(insertErr) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

func (r *OrderRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE idempotency_key = $1`
	return r.queryOne(ctx, query, key)
}

// ListByEmail returns the customer's orders, newest first.
func (r *OrderRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_email = $1 ORDER BY created_at DESC, id DESC`
	return r.queryList(ctx, query, email)
}

// ListBySession returns the orders placed from a shopper session, newest
// first.
func (r *OrderRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE session_id = $1 ORDER BY created_at DESC, id DESC`
	return r.queryList(ctx, query, sessionID)
}

func (r *OrderRepository) queryList(ctx context.Context, query string, arg string) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) queryOne(ctx context.Context, query string, arg string) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func scanOrder(s scanner) (*domain.Order, error) {
	var (
		order     domain.Order
		key       sql.NullString
		linesJSON string
		status    string
		createdAt int64
	)
	err := s.Scan(
		&order.ID,
		&key,
		&order.SessionID,
		&order.Customer.Name,
		&order.Customer.Email,
		&order.Customer.Phone,
		&order.Customer.Address,
		&linesJSON,
		&order.TotalAmount,
		&order.Currency,
		&order.PaymentMethod,
		&status,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	if err := json.Unmarshal([]byte(linesJSON), &order.Lines); err != nil {
		return nil, fmt.Errorf("unmarshal order lines: %w", err)
	}
	order.IdempotencyKey = key.String
	order.Status = domain.OrderStatus(status)
	order.CreatedAt = fromUnixMilli(createdAt)
	return &order, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
