// Package local keeps catalog records as JSON arrays in a key-value store,
// one key per collection.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository/kv"
)

const (
	ProductsKey = "himalayan_products"
	SlidesKey   = "himalayan_hero_slides"
)

// collection is a read-modify-write view of one JSON array. The mutex
// serializes writers within the process; last write wins across processes.
type collection[T any] struct {
	mu    sync.Mutex
	store kv.Store
	key   string
	id    func(T) string
	seed  func() []T
}

// load reads the array. A missing key is seeded (and stored) when a seed is
// configured, otherwise it is an empty collection.
func (c *collection[T]) load(ctx context.Context) ([]T, error) {
	data, err := c.store.Get(ctx, c.key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		if c.seed == nil {
			return []T{}, nil
		}
		items := c.seed()
		if err := c.save(ctx, items); err != nil {
			return nil, err
		}
		return items, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.key, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.key, err)
	}
	return items, nil
}

func (c *collection[T]) save(ctx context.Context, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.key, err)
	}
	if err := c.store.Set(ctx, c.key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.key, err)
	}
	return nil
}

func (c *collection[T]) list(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

func (c *collection[T]) get(ctx context.Context, id string) (T, error) {
	var zero T
	items, err := c.list(ctx)
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if c.id(item) == id {
			return item, nil
		}
	}
	return zero, domain.ErrNotFound
}

func (c *collection[T]) insert(ctx context.Context, item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		return err
	}
	for _, existing := range items {
		if c.id(existing) == c.id(item) {
			return fmt.Errorf("duplicate id %s in %s", c.id(item), c.key)
		}
	}
	return c.save(ctx, append(items, item))
}

func (c *collection[T]) update(ctx context.Context, item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		return err
	}
	for i := range items {
		if c.id(items[i]) == c.id(item) {
			items[i] = item
			return c.save(ctx, items)
		}
	}
	return domain.ErrNotFound
}

func (c *collection[T]) delete(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		return false, err
	}
	for i := range items {
		if c.id(items[i]) == id {
			items = append(items[:i], items[i+1:]...)
			return true, c.save(ctx, items)
		}
	}
	return false, nil
}
