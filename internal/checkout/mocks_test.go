package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
)

type mockOrderRepository struct {
	mu        sync.Mutex
	orders    []*domain.Order
	createErr error
	getErr    error
	onCreate  func()
}

func (m *mockOrderRepository) Name() string { return "mock" }

func (m *mockOrderRepository) Create(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.onCreate != nil {
		m.onCreate()
	}
	if m.createErr != nil {
		return m.createErr
	}
	for _, o := range m.orders {
		if o.ID == order.ID || (order.IdempotencyKey != "" && o.IdempotencyKey == order.IdempotencyKey) {
			return domain.ErrConflict
		}
	}
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockOrderRepository) Get(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockOrderRepository) GetByIdempotencyKey(_ context.Context, key string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, o := range m.orders {
		if o.IdempotencyKey == key {
			return o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockOrderRepository) ListByEmail(_ context.Context, email string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.Customer.Email == email {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepository) ListBySession(_ context.Context, sessionID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.SessionID == sessionID {
			out = append(out, o)
		}
	}
	return out, nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []events.CheckoutCompleted
	err    error
}

func (m *mockPublisher) PublishCheckoutCompleted(_ context.Context, event events.CheckoutCompleted) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

type priceTable map[string]int64

func (p priceTable) Price(_ context.Context, id string) (int64, bool) {
	price, ok := p[id]
	return price, ok
}

var errBackendDown = errors.New("backend down")
