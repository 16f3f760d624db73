// Package catalog is the catalog access layer: one read/write contract over
// whichever product backend was configured at startup.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Catalog struct {
	backend         Backend
	cache           Cache
	newID           func() (string, error)
	defaultCategory domain.Category
	log             *zap.Logger
	sfg             singleflight.Group // Prevents cache stampede

	// fillMu orders cache fills against invalidations; generation counts
	// writes so a fill that started before a write never lands after it.
	fillMu     sync.Mutex
	generation uint64
}

type Option func(*Catalog)

func WithCache(cache Cache) Option {
	return func(c *Catalog) { c.cache = cache }
}

func WithDefaultCategory(category domain.Category) Option {
	return func(c *Catalog) {
		if category.Valid() {
			c.defaultCategory = category
		}
	}
}

func WithIDGenerator(newID func() (string, error)) Option {
	return func(c *Catalog) { c.newID = newID }
}

func New(backend Backend, log *zap.Logger, opts ...Option) *Catalog {
	c := &Catalog{
		backend:         backend,
		newID:           func() (string, error) { return NewID("p") },
		defaultCategory: domain.DefaultCategory,
		log:             log.With(zap.String("backend", backend.Name())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReadOnly reports whether the configured backend rejects writes.
func (c *Catalog) ReadOnly() bool {
	_, ok := c.backend.(Writer)
	return !ok
}

func (c *Catalog) BackendName() string {
	return c.backend.Name()
}

// ListProducts never fails: a backend error is logged and yields an empty
// listing. Order is the backend's natural order; use domain.SortProducts for
// display.
func (c *Catalog) ListProducts(ctx context.Context) []domain.Product {
	v, err, _ := c.sfg.Do("list", func() (interface{}, error) {
		if c.cache != nil {
			products, err := c.cache.Get(ctx)
			if err == nil {
				return products, nil
			}
			if !errors.Is(err, ErrCacheMiss) {
				c.log.Warn("catalog cache get failed", zap.Error(err)) // log cache error but continue
			}
		}

		gen := c.currentGeneration()
		products, err := c.backend.List(ctx)
		if err != nil {
			return nil, err
		}
		products = c.normalize(products)

		if c.cache != nil {
			c.fill(ctx, gen, products)
		}
		return products, nil
	})
	if err != nil {
		c.log.Error("failed to list products", zap.Error(err))
		return []domain.Product{}
	}

	// Callers may sort or modify the listing; never hand out the shared slice.
	shared := v.([]domain.Product)
	out := make([]domain.Product, len(shared))
	copy(out, shared)
	return out
}

// GetProduct looks up id by exact match. A missing product is reported with
// ok == false; backend failures are logged and reported the same way.
func (c *Catalog) GetProduct(ctx context.Context, id string) (domain.Product, bool) {
	p, err := c.get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Product{}, false
	}
	if err != nil {
		c.log.Error("failed to get product", zap.String("product_id", id), zap.Error(err))
		return domain.Product{}, false
	}
	return p, true
}

// Price returns the current unit price of id. It satisfies domain.PriceFunc
// through a closure in the cart package.
func (c *Catalog) Price(ctx context.Context, id string) (int64, bool) {
	p, ok := c.GetProduct(ctx, id)
	if !ok {
		return 0, false
	}
	return p.Price, true
}

func (c *Catalog) get(ctx context.Context, id string) (domain.Product, error) {
	if g, ok := c.backend.(Getter); ok {
		p, err := g.Get(ctx, id)
		if err != nil {
			return domain.Product{}, err
		}
		return c.normalizeOne(p), nil
	}

	products, err := c.backend.List(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return c.normalizeOne(p), nil
		}
	}
	return domain.Product{}, domain.ErrNotFound
}

// CreateProduct assigns a fresh identifier and stores the record. A read-only
// backend yields domain.ErrUnsupportedOperation, a failed write a
// *domain.PersistenceError.
func (c *Catalog) CreateProduct(ctx context.Context, fields domain.ProductFields) (domain.Product, error) {
	w, err := c.writer()
	if err != nil {
		return domain.Product{}, err
	}
	if err := fields.Validate(); err != nil {
		return domain.Product{}, err
	}

	id, err := c.newID()
	if err != nil {
		return domain.Product{}, err
	}
	product := fields.WithID(id, c.defaultCategory)

	if err := w.Insert(ctx, product); err != nil {
		return domain.Product{}, domain.NewPersistenceError("insert", c.backend.Name(), err)
	}
	c.invalidate()

	c.log.Info("product created", zap.String("product_id", product.ID), zap.String("name", product.Name))
	return product, nil
}

// UpdateProduct merges patch over the stored record; omitted fields keep
// their value.
func (c *Catalog) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	w, err := c.writer()
	if err != nil {
		return domain.Product{}, err
	}
	if err := patch.Validate(); err != nil {
		return domain.Product{}, err
	}

	current, err := c.get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Product{}, domain.NewPersistenceError("read", c.backend.Name(), err)
	}

	updated := patch.Apply(current, c.defaultCategory)
	if err := w.Update(ctx, updated); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
		}
		return domain.Product{}, domain.NewPersistenceError("update", c.backend.Name(), err)
	}
	c.invalidate()

	c.log.Info("product updated", zap.String("product_id", id))
	return updated, nil
}

// DeleteProduct is idempotent: removing a missing id is not an error.
// removed reports whether a record was actually deleted.
func (c *Catalog) DeleteProduct(ctx context.Context, id string) (removed bool, err error) {
	w, err := c.writer()
	if err != nil {
		return false, err
	}

	removed, err = w.Delete(ctx, id)
	if err != nil {
		return false, domain.NewPersistenceError("delete", c.backend.Name(), err)
	}
	c.invalidate()

	c.log.Info("product deleted", zap.String("product_id", id), zap.Bool("removed", removed))
	return removed, nil
}

func (c *Catalog) writer() (Writer, error) {
	w, ok := c.backend.(Writer)
	if !ok {
		return nil, fmt.Errorf("%s catalog is read-only: %w", c.backend.Name(), domain.ErrUnsupportedOperation)
	}
	return w, nil
}

func (c *Catalog) currentGeneration() uint64 {
	c.fillMu.Lock()
	defer c.fillMu.Unlock()
	return c.generation
}

// fill stores a listing read at generation gen, unless a write happened
// since the read began.
func (c *Catalog) fill(ctx context.Context, gen uint64, products []domain.Product) {
	c.fillMu.Lock()
	defer c.fillMu.Unlock()
	if gen != c.generation {
		c.log.Debug("skipping cache fill, catalog changed during read")
		return
	}
	if err := c.cache.Set(ctx, products); err != nil {
		c.log.Warn("catalog cache set failed", zap.Error(err))
	}
}

func (c *Catalog) invalidate() {
	// Drop any in-flight listing so the next read sees this write.
	c.sfg.Forget("list")

	c.fillMu.Lock()
	defer c.fillMu.Unlock()
	c.generation++
	if c.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.cache.Invalidate(ctx); err != nil {
		c.log.Warn("catalog cache invalidate failed", zap.Error(err))
	}
}

func (c *Catalog) normalize(products []domain.Product) []domain.Product {
	out := make([]domain.Product, len(products))
	for i, p := range products {
		out[i] = c.normalizeOne(p)
	}
	return out
}

func (c *Catalog) normalizeOne(p domain.Product) domain.Product {
	p.Category = domain.NormalizeCategory(string(p.Category), c.defaultCategory)
	return p
}
