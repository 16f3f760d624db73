// Package cart holds the shopper carts: one Engine per session, persisted
// as a single blob after every mutation.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository/kv"
	"go.uber.org/zap"
)

// PriceSource resolves the current unit price of a product. *catalog.Catalog
// implements it.
type PriceSource interface {
	Price(ctx context.Context, productID string) (int64, bool)
}

// maxSettledOrders bounds the order ids a cart remembers for deduplicating
// settlements.
const maxSettledOrders = 32

func Key(sessionID string) string {
	return "cart:" + sessionID
}

// Engine is one session's cart. Mutations run under the engine mutex and are
// persisted before the lock is released, so stored blobs follow the same
// order as the mutations.
type Engine struct {
	mu        sync.Mutex
	sessionID string
	lines     []domain.CartLine
	settled   []string
	updatedAt time.Time
	lastUsed  time.Time

	store kv.Store
	log   *zap.Logger
	now   func() time.Time
}

// Open restores the session cart from store. A missing, unreadable or
// corrupt blob yields an empty cart; the failure is only logged.
func Open(ctx context.Context, sessionID string, store kv.Store, log *zap.Logger) *Engine {
	e := &Engine{
		sessionID: sessionID,
		lines:     []domain.CartLine{},
		store:     store,
		log:       log.With(zap.String("session_id", sessionID)),
		now:       time.Now,
	}
	e.lastUsed = e.now()
	e.restore(ctx)
	return e
}

func (e *Engine) restore(ctx context.Context) {
	stored, ok := e.load(ctx)
	if !ok {
		return
	}
	e.adopt(stored)
}

func (e *Engine) load(ctx context.Context) (domain.Cart, bool) {
	data, err := e.store.Get(ctx, Key(e.sessionID))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return domain.Cart{}, false
	}
	if err != nil {
		e.log.Warn("cart load failed", zap.Error(err))
		return domain.Cart{}, false
	}

	var stored domain.Cart
	if err := json.Unmarshal(data, &stored); err != nil {
		e.log.Warn("corrupt cart blob", zap.Error(err))
		return domain.Cart{}, false
	}
	return stored, true
}

func (e *Engine) adopt(stored domain.Cart) {
	e.lines = sanitize(stored.Lines)
	e.settled = stored.SettledOrders
	e.updatedAt = stored.UpdatedAt
}

func (e *Engine) SessionID() string {
	return e.sessionID
}

// Add merges quantity into the product's line, or appends a new line.
// Quantities below 1 are treated as 1.
func (e *Engine) Add(ctx context.Context, product domain.Product, quantity int) error {
	return e.mutate(ctx, func(prev []domain.CartLine, now time.Time) []domain.CartLine {
		return addLine(prev, product, quantity, now)
	})
}

// Remove drops the product's line; a missing line is not an error.
func (e *Engine) Remove(ctx context.Context, productID string) error {
	return e.mutate(ctx, func(prev []domain.CartLine, _ time.Time) []domain.CartLine {
		return removeLine(prev, productID)
	})
}

// SetQuantity sets max(1, quantity) on an existing line. It never removes
// the line and does nothing when the line is absent.
func (e *Engine) SetQuantity(ctx context.Context, productID string, quantity int) error {
	return e.mutate(ctx, func(prev []domain.CartLine, _ time.Time) []domain.CartLine {
		return setLineQuantity(prev, productID, quantity)
	})
}

func (e *Engine) Clear(ctx context.Context) error {
	return e.mutate(ctx, func([]domain.CartLine, time.Time) []domain.CartLine {
		return []domain.CartLine{}
	})
}

// Settle takes an order's lines out of the cart: ordered quantities are
// subtracted and anything added since the order was placed stays. Settling
// the same order again is a no-op.
//
// A stored blob newer than the in-memory state, written by another replica,
// is adopted before settling.
func (e *Engine) Settle(ctx context.Context, orderID string, ordered []domain.CartLine) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if stored, ok := e.load(ctx); ok && stored.UpdatedAt.After(e.updatedAt) {
		e.adopt(stored)
	}
	e.lastUsed = e.now()
	if slices.Contains(e.settled, orderID) {
		return nil
	}

	e.lines = settleLines(e.lines, ordered)
	e.settled = rememberOrder(e.settled, orderID)
	e.updatedAt = e.lastUsed
	return e.save(ctx)
}

// mutate applies fn and persists the result. On a failed write the new state
// is kept in memory and the failure is returned as a *domain.PersistenceError.
func (e *Engine) mutate(ctx context.Context, fn func([]domain.CartLine, time.Time) []domain.CartLine) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.lines = fn(e.lines, now)
	e.updatedAt = now
	e.lastUsed = now
	return e.save(ctx)
}

func (e *Engine) save(ctx context.Context) error {
	if err := e.persist(ctx); err != nil {
		e.log.Error("cart persist failed", zap.Error(err))
		return domain.NewPersistenceError("save cart", "kv", err)
	}
	return nil
}

func (e *Engine) persist(ctx context.Context) error {
	data, err := json.Marshal(e.snapshot())
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	return e.store.Set(ctx, Key(e.sessionID), data)
}

// Snapshot returns a copy of the cart.
func (e *Engine) Snapshot() domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = e.now()
	return e.snapshot()
}

func (e *Engine) snapshot() domain.Cart {
	lines := make([]domain.CartLine, len(e.lines))
	copy(lines, e.lines)
	return domain.Cart{
		SessionID:     e.sessionID,
		Lines:         lines,
		UpdatedAt:     e.updatedAt,
		SettledOrders: slices.Clone(e.settled),
	}
}

func (e *Engine) TotalItems() int {
	c := e.Snapshot()
	return c.TotalItems()
}

// TotalPrice prices every line at the catalog's current price. Lines whose
// product left the catalog keep their snapshot price.
func (e *Engine) TotalPrice(ctx context.Context, prices PriceSource) int64 {
	c := e.Snapshot()
	return c.TotalPrice(PriceFunc(ctx, prices))
}

// PriceFunc adapts a PriceSource to domain.PriceFunc. A nil source prices
// every line at its snapshot price.
func PriceFunc(ctx context.Context, prices PriceSource) domain.PriceFunc {
	if prices == nil {
		return nil
	}
	return func(productID string) (int64, bool) {
		return prices.Price(ctx, productID)
	}
}

func (e *Engine) touch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = e.now()
}

func (e *Engine) idleSince() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastUsed
}
