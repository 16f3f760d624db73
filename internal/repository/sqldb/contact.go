package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(d *DB) *ContactRepository {
	return &ContactRepository{db: d.db}
}

func (r *ContactRepository) Save(ctx context.Context, msg domain.ContactMessage) error {
	query := `INSERT INTO contact_messages (id, name, email, message, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, msg.ID, msg.Name, msg.Email, msg.Message, unixMilli(msg.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}

// List returns stored messages, newest first.
func (r *ContactRepository) List(ctx context.Context) ([]domain.ContactMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, message, created_at FROM contact_messages ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query contact messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.ContactMessage{}
	for rows.Next() {
		var (
			m         domain.ContactMessage
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact message: %w", err)
		}
		m.CreatedAt = fromUnixMilli(createdAt)
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return messages, nil
}
