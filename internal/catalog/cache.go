package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository/kv"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache holds the product listing between reads. Every write issued through
// the Catalog invalidates it.
type Cache interface {
	Get(ctx context.Context) ([]domain.Product, error)
	Set(ctx context.Context, products []domain.Product) error
	Invalidate(ctx context.Context) error
}

const cacheKey = "products"

// StoreCache keeps the listing as one JSON blob in a kv.Store, normally a
// redis store with a TTL.
type StoreCache struct {
	store kv.Store
}

func NewStoreCache(store kv.Store) *StoreCache {
	return &StoreCache{store: store}
}

func (c *StoreCache) Get(ctx context.Context) ([]domain.Product, error) {
	data, err := c.store.Get(ctx, cacheKey)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("unmarshal products failed: %w", err)
	}
	return products, nil
}

func (c *StoreCache) Set(ctx context.Context, products []domain.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal products failed: %w", err)
	}
	return c.store.Set(ctx, cacheKey, data)
}

func (c *StoreCache) Invalidate(ctx context.Context) error {
	return c.store.Delete(ctx, cacheKey)
}
