package local

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository/kv"
)

// ProductStore is the local-store catalog backend. An empty store is seeded
// with the given default products on first read.
type ProductStore struct {
	items *collection[domain.Product]
}

func NewProductStore(store kv.Store, defaults []domain.Product) *ProductStore {
	return &ProductStore{items: &collection[domain.Product]{
		store: store,
		key:   ProductsKey,
		id:    func(p domain.Product) string { return p.ID },
		seed: func() []domain.Product {
			return append([]domain.Product{}, defaults...)
		},
	}}
}

func (s *ProductStore) Name() string { return "local" }

func (s *ProductStore) List(ctx context.Context) ([]domain.Product, error) {
	return s.items.list(ctx)
}

func (s *ProductStore) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.items.get(ctx, id)
}

func (s *ProductStore) Insert(ctx context.Context, p domain.Product) error {
	return s.items.insert(ctx, p)
}

func (s *ProductStore) Update(ctx context.Context, p domain.Product) error {
	return s.items.update(ctx, p)
}

func (s *ProductStore) Delete(ctx context.Context, id string) (bool, error) {
	return s.items.delete(ctx, id)
}
