package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	kafal = domain.Product{ID: "f1", Name: "Kafal", Price: 300}
	tulsi = domain.Product{ID: "h1", Name: "Tulsi", Price: 450}

	sita = domain.Customer{Name: "Sita", Email: " Sita@Example.com ", Phone: "9800000000", Address: "Lakeside, Pokhara"}
)

type fixture struct {
	svc       *Service
	repo      *mockOrderRepository
	publisher *mockPublisher
	carts     *cart.Manager
}

func setup(t *testing.T, prices priceTable) fixture {
	t.Helper()
	repo := &mockOrderRepository{}
	publisher := &mockPublisher{}
	carts := cart.NewManager(kv.NewMemoryStore(), zap.NewNop())
	return fixture{
		svc:       NewService(repo, carts, prices, publisher, zap.NewNop()),
		repo:      repo,
		publisher: publisher,
		carts:     carts,
	}
}

func fillCart(t *testing.T, f fixture, sessionID string) {
	t.Helper()
	ctx := context.Background()
	e := f.carts.Session(ctx, sessionID)
	require.NoError(t, e.Add(ctx, kafal, 3))
	require.NoError(t, e.Add(ctx, tulsi, 1))
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	f := setup(t, priceTable{"f1": 320, "h1": 450})
	fillCart(t, f, "sess-1")

	order, err := f.svc.PlaceOrder(ctx, "sess-1", sita, "key-1")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentCashOnDelivery, order.PaymentMethod)
	assert.Equal(t, domain.CurrencyNPR, order.Currency)
	assert.Equal(t, "sita@example.com", order.Customer.Email)
	assert.Regexp(t, `^ord-`, order.ID)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, domain.OrderLine{ProductID: "f1", ProductName: "Kafal", Quantity: 3, UnitPrice: 320, Subtotal: 960}, order.Lines[0])
	assert.Equal(t, int64(960+450), order.TotalAmount, "live prices at checkout time")

	assert.Zero(t, f.carts.Session(ctx, "sess-1").TotalItems(), "ordered lines leave the cart")

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, order.ID, f.publisher.events[0].OrderID)
	assert.Equal(t, "sess-1", f.publisher.events[0].SessionID)
}

func TestPlaceOrder_KeepsLinesAddedDuringCreate(t *testing.T) {
	ctx := context.Background()
	f := setup(t, priceTable{})
	fillCart(t, f, "sess-1")
	x9 := domain.Product{ID: "x9", Name: "Timur", Price: 120}
	f.repo.onCreate = func() {
		// Another request from the same shopper lands while the order is written.
		require.NoError(t, f.carts.Session(ctx, "sess-1").Add(ctx, x9, 2))
		require.NoError(t, f.carts.Session(ctx, "sess-1").Add(ctx, kafal, 1))
	}

	order, err := f.svc.PlaceOrder(ctx, "sess-1", sita, "")
	require.NoError(t, err)
	require.Len(t, order.Lines, 2)

	c := f.carts.Session(ctx, "sess-1").Snapshot()
	assert.Equal(t, 3, c.TotalItems())
	line, ok := c.Line("x9")
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)
	line, ok = c.Line("f1")
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := setup(t, priceTable{})

	_, err := f.svc.PlaceOrder(context.Background(), "sess-empty", sita, "")

	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Empty(t, f.repo.orders)
	assert.Empty(t, f.publisher.events)
}

func TestPlaceOrder_InvalidCustomer(t *testing.T) {
	f := setup(t, priceTable{})
	fillCart(t, f, "sess-1")

	_, err := f.svc.PlaceOrder(context.Background(), "sess-1", domain.Customer{Name: "Sita", Email: "not-an-email", Address: "x"}, "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 4, f.carts.Session(context.Background(), "sess-1").TotalItems())
}

func TestPlaceOrder_IdempotentReplay(t *testing.T) {
	ctx := context.Background()
	f := setup(t, priceTable{"f1": 300, "h1": 450})
	fillCart(t, f, "sess-1")

	first, err := f.svc.PlaceOrder(ctx, "sess-1", sita, "key-1")
	require.NoError(t, err)

	// The cart is empty now; a replay still returns the stored order.
	second, err := f.svc.PlaceOrder(ctx, "sess-1", sita, "key-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.repo.orders, 1)
	assert.Len(t, f.publisher.events, 1)
}

func TestPlaceOrder_PersistFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := setup(t, priceTable{})
	f.repo.createErr = errBackendDown
	fillCart(t, f, "sess-1")

	_, err := f.svc.PlaceOrder(ctx, "sess-1", sita, "")

	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, 4, f.carts.Session(ctx, "sess-1").TotalItems())
	assert.Empty(t, f.publisher.events)
}

func TestPlaceOrder_IdempotencyLookupFailure(t *testing.T) {
	f := setup(t, priceTable{})
	f.repo.getErr = errBackendDown
	fillCart(t, f, "sess-1")

	_, err := f.svc.PlaceOrder(context.Background(), "sess-1", sita, "key-1")

	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestPlaceOrder_PublishFailureKeepsOrder(t *testing.T) {
	ctx := context.Background()
	f := setup(t, priceTable{})
	f.publisher.err = errBackendDown
	fillCart(t, f, "sess-1")

	order, err := f.svc.PlaceOrder(ctx, "sess-1", sita, "")

	require.NoError(t, err)
	assert.Len(t, f.repo.orders, 1)
	assert.Equal(t, order.ID, f.repo.orders[0].ID)
	assert.Zero(t, f.carts.Session(ctx, "sess-1").TotalItems())
}

func TestPlaceOrder_NoPublisher(t *testing.T) {
	ctx := context.Background()
	repo := &mockOrderRepository{}
	carts := cart.NewManager(kv.NewMemoryStore(), zap.NewNop())
	svc := NewService(repo, carts, nil, nil, zap.NewNop())
	require.NoError(t, carts.Session(ctx, "s").Add(ctx, kafal, 2))

	order, err := svc.PlaceOrder(ctx, "s", sita, "")

	require.NoError(t, err)
	assert.Equal(t, int64(600), order.TotalAmount, "snapshot prices without a catalog")
}

func TestListOrders_ScopedToSession(t *testing.T) {
	ctx := context.Background()
	f := setup(t, priceTable{})
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	for i, session := range []string{"a", "b", "a"} {
		at := base.Add(time.Duration(i) * time.Hour)
		f.svc.now = func() time.Time { return at }
		fillCart(t, f, session)
		_, err := f.svc.PlaceOrder(ctx, session, sita, "")
		require.NoError(t, err)
	}

	orders, err := f.svc.ListOrders(ctx, "a")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, base.Add(2*time.Hour), orders[0].CreatedAt)
	assert.Equal(t, base, orders[1].CreatedAt)

	orders, err = f.svc.ListOrders(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = f.svc.ListOrders(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListOrdersByEmail_NewestFirst(t *testing.T) {
	ctx := context.Background()
	f := setup(t, priceTable{})
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	for i, session := range []string{"a", "b", "c"} {
		at := base.Add(time.Duration(i) * time.Hour)
		f.svc.now = func() time.Time { return at }
		fillCart(t, f, session)
		_, err := f.svc.PlaceOrder(ctx, session, sita, "")
		require.NoError(t, err)
	}

	orders, err := f.svc.ListOrdersByEmail(ctx, "SITA@example.com")
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "c", orders[0].SessionID)
	assert.Equal(t, "a", orders[2].SessionID)

	got, err := f.svc.GetOrder(ctx, orders[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.SessionID)

	_, err = f.svc.GetOrder(ctx, "ord-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.ListOrdersByEmail(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
