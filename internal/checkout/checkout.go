// Package checkout turns a session cart into a stored cash-on-delivery order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderRepository stores orders. Create returns domain.ErrConflict for a
// reused id or idempotency key; lookups return domain.ErrNotFound.
type OrderRepository interface {
	Name() string
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	ListByEmail(ctx context.Context, email string) ([]*domain.Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error)
}

type EventPublisher interface {
	PublishCheckoutCompleted(ctx context.Context, event events.CheckoutCompleted) error
}

type Service struct {
	orders    OrderRepository
	carts     *cart.Manager
	prices    cart.PriceSource
	publisher EventPublisher
	log       *zap.Logger
	now       func() time.Time
}

// NewService wires the pipeline. publisher may be nil when no broker is
// configured.
func NewService(orders OrderRepository, carts *cart.Manager, prices cart.PriceSource, publisher EventPublisher, log *zap.Logger) *Service {
	return &Service{
		orders:    orders,
		carts:     carts,
		prices:    prices,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// PlaceOrder snapshots the session cart at current prices, stores a pending
// order and settles the ordered lines out of the cart. Lines added while the
// order was being stored stay in the cart. Replaying an idempotency key returns the order
// stored under it without touching the cart.
func (s *Service) PlaceOrder(ctx context.Context, sessionID string, customer domain.Customer, idempotencyKey string) (*domain.Order, error) {
	customer = normalizeCustomer(customer)
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		existing, err := s.orders.GetByIdempotencyKey(ctx, idempotencyKey)
		if err == nil {
			s.log.Info("duplicate checkout request",
				zap.String("idempotency_key", idempotencyKey),
				zap.String("order_id", existing.ID))
			return existing, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewPersistenceError("check idempotency", s.orders.Name(), err)
		}
	}

	engine := s.carts.Session(ctx, sessionID)
	snapshot := engine.Snapshot()
	if len(snapshot.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate order id: %w", err)
	}
	order := &domain.Order{
		ID:             "ord-" + id.String(),
		IdempotencyKey: idempotencyKey,
		SessionID:      sessionID,
		Customer:       customer,
		Currency:       domain.CurrencyNPR,
		PaymentMethod:  domain.PaymentCashOnDelivery,
		Status:         domain.OrderStatusPending,
		CreatedAt:      s.now().UTC().Truncate(time.Millisecond),
	}
	order.Lines, order.TotalAmount = buildLines(snapshot, cart.PriceFunc(ctx, s.prices))

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, domain.ErrConflict) && idempotencyKey != "" {
			// Lost a race with a concurrent request carrying the same key.
			existing, getErr := s.orders.GetByIdempotencyKey(ctx, idempotencyKey)
			if getErr == nil {
				return existing, nil
			}
		}
		return nil, domain.NewPersistenceError("create order", s.orders.Name(), err)
	}

	log := s.log.With(zap.String("order_id", order.ID), zap.String("session_id", sessionID))
	log.Info("order placed", zap.Int64("total_amount", order.TotalAmount), zap.Int("lines", len(order.Lines)))

	if err := engine.Settle(ctx, order.ID, snapshot.Lines); err != nil {
		log.Warn("order stored but cart settle failed", zap.Error(err))
	}
	s.publish(ctx, order, log)
	return order, nil
}

func (s *Service) publish(ctx context.Context, order *domain.Order, log *zap.Logger) {
	if s.publisher == nil {
		return
	}
	items := make([]events.CheckoutItem, len(order.Lines))
	for i, line := range order.Lines {
		items[i] = events.CheckoutItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		}
	}
	err := s.publisher.PublishCheckoutCompleted(ctx, events.CheckoutCompleted{
		OrderID:       order.ID,
		SessionID:     order.SessionID,
		CustomerEmail: order.Customer.Email,
		Items:         items,
		TotalAmount:   order.TotalAmount,
		Currency:      order.Currency,
		CompletedAt:   order.CreatedAt,
	})
	if err != nil {
		log.Error("failed to publish checkout event", zap.Error(err))
	}
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, domain.NewPersistenceError("get order", s.orders.Name(), err)
	}
	return order, nil
}

// ListOrders returns the orders placed from the shopper session, newest
// first.
func (s *Service) ListOrders(ctx context.Context, sessionID string) ([]*domain.Order, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session is required", domain.ErrInvalidInput)
	}
	orders, err := s.orders.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, domain.NewPersistenceError("list orders", s.orders.Name(), err)
	}
	return newestFirst(orders), nil
}

// ListOrdersByEmail returns every order placed under email, newest first.
// Callers must restrict it to admins.
func (s *Service) ListOrdersByEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	orders, err := s.orders.ListByEmail(ctx, email)
	if err != nil {
		return nil, domain.NewPersistenceError("list orders", s.orders.Name(), err)
	}
	return newestFirst(orders), nil
}

func newestFirst(orders []*domain.Order) []*domain.Order {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func buildLines(c domain.Cart, price domain.PriceFunc) ([]domain.OrderLine, int64) {
	lines := make([]domain.OrderLine, 0, len(c.Lines))
	var total int64
	for _, line := range c.Lines {
		unit := line.UnitPrice(price)
		subtotal := unit * int64(line.Quantity)
		lines = append(lines, domain.OrderLine{
			ProductID:   line.ProductID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   unit,
			Subtotal:    subtotal,
		})
		total += subtotal
	}
	return lines, total
}

func normalizeCustomer(c domain.Customer) domain.Customer {
	return domain.Customer{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.ToLower(strings.TrimSpace(c.Email)),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
	}
}
