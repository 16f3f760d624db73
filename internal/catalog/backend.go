package catalog

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Backend is the capability every catalog source has: listing all records.
// Read-only feeds implement nothing else.
type Backend interface {
	Name() string
	List(ctx context.Context) ([]domain.Product, error)
}

// Getter is implemented by backends with a native lookup by id. It returns
// domain.ErrNotFound for a missing record.
type Getter interface {
	Get(ctx context.Context, id string) (domain.Product, error)
}

// Writer is implemented by backends that accept administrative writes.
// Update returns domain.ErrNotFound when no record has the product's id;
// Delete reports whether a record was removed.
type Writer interface {
	Insert(ctx context.Context, p domain.Product) error
	Update(ctx context.Context, p domain.Product) error
	Delete(ctx context.Context, id string) (bool, error)
}
