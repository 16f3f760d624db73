package cart

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository/kv"
	"go.uber.org/zap"
)

// Manager owns the open engines of this process, one per session id. Every
// request for a session reaches the same Engine, so its mutex serializes
// that session's mutations.
type Manager struct {
	mu      sync.Mutex
	engines map[string]*Engine
	store   kv.Store
	log     *zap.Logger
}

func NewManager(store kv.Store, log *zap.Logger) *Manager {
	return &Manager{
		engines: make(map[string]*Engine),
		store:   store,
		log:     log,
	}
}

// Session returns the session's engine, restoring it from the store the first
// time it is asked for. Asking counts as use for the sweeper.
func (m *Manager) Session(ctx context.Context, sessionID string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.engines[sessionID]; ok {
		e.touch()
		return e
	}
	e := Open(ctx, sessionID, m.store, m.log)
	m.engines[sessionID] = e
	return e
}

// Settle takes a completed order's lines out of the session cart, whether or
// not the session is open here.
func (m *Manager) Settle(ctx context.Context, sessionID, orderID string, ordered []domain.CartLine) error {
	return m.Session(ctx, sessionID).Settle(ctx, orderID, ordered)
}

// Sweep closes engines untouched for longer than idle. Their state is
// already persisted; the next request reopens them from the store.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	var swept int
	for id, e := range m.engines {
		if e.idleSince().Before(cutoff) {
			delete(m.engines, id)
			swept++
		}
	}
	return swept
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(idle); n > 0 {
				m.log.Debug("idle carts swept", zap.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) Open() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.engines)
}
