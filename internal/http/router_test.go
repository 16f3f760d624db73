package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/assistant"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/contact"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository/kv"
	"github.com/fjod/go_cart/storefront/internal/repository/local"
	"github.com/fjod/go_cart/storefront/internal/repository/sqldb"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/slides"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminEmail    = "admin@himalayan.example"
	adminPassword = "s3cret"
)

var shopper = domain.Customer{Name: "Sita", Email: "sita@example.com", Phone: "9800000000", Address: "Lakeside, Pokhara"}

type testServer struct {
	handler http.Handler
	catalog *catalog.Catalog
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()

	db, err := sqldb.Open(sqldb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.RunMigrations())

	store := kv.NewMemoryStore()
	products := catalog.New(local.NewProductStore(store, catalog.DefaultProducts()), log)
	heroSlides := slides.NewService(local.NewSlideStore(store), log)
	carts := cart.NewManager(store, log)

	hash, err := session.HashPassword(adminPassword)
	require.NoError(t, err)
	sessions := session.NewManager(map[string]string{adminEmail: hash}, time.Hour, log, session.WithAccountStore(store))
	orders := checkout.NewService(sqldb.NewOrderRepository(db), carts, products, nil, log)

	timeout := 5 * time.Second
	h := Handlers{
		Products:  NewProductHandler(products, heroSlides),
		Cart:      NewCartHandler(carts, products, timeout, log),
		Checkout:  NewCheckoutHandler(orders, timeout, log),
		Contact:   NewContactHandler(contact.NewService(sqldb.NewContactRepository(db), nil, log), timeout, log),
		Assistant: NewAssistantHandler(carts, products, timeout, log),
		Admin:     NewAdminHandler(admin.NewService(products, heroSlides, orders, sessions), sessions, timeout, log),
		Sessions:  sessions,
	}
	return &testServer{
		handler: NewRouter(RouterConfig{RequestTimeout: 10 * time.Second, MaxRequestBodySize: 1 << 20}, h, log),
		catalog: products,
	}
}

type call struct {
	method  string
	path    string
	body    interface{}
	session string
	token   string
}

func (s *testServer) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: c.session})
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	rec := s.do(t, call{method: "POST", path: "/api/v1/admin/login", body: LoginRequestDTO{Email: adminEmail, Password: adminPassword}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[session.Session](t, rec).Token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, call{method: "GET", path: "/health"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListProducts(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, call{method: "GET", path: "/api/v1/products"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ProductsResponse](t, rec)
	assert.Len(t, resp.Products, 11)
	assert.False(t, resp.ReadOnly)

	rec = s.do(t, call{method: "GET", path: "/api/v1/products?category=herbs"})
	require.Equal(t, http.StatusOK, rec.Code)
	for _, p := range decode[ProductsResponse](t, rec).Products {
		assert.Equal(t, domain.CategoryHerbs, p.Category)
	}

	rec = s.do(t, call{method: "GET", path: "/api/v1/products?search=KURILO"})
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[ProductsResponse](t, rec).Products
	require.Len(t, found, 1)
	assert.Equal(t, "h3", found[0].ID)

	rec = s.do(t, call{method: "GET", path: "/api/v1/products?category=vegetables"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProduct(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, call{method: "GET", path: "/api/v1/products/h1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(450), decode[domain.Product](t, rec).Price)

	rec = s.do(t, call{method: "GET", path: "/api/v1/products/nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_IssuesSessionCookie(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, call{method: "GET", path: "/api/v1/cart"})

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.Equal(t, cookies[0].Value, decode[CartResponseDTO](t, rec).SessionID)
}

func TestCart_Flow(t *testing.T) {
	s := newTestServer(t)
	const sess = "sess-cart"

	rec := s.do(t, call{method: "POST", path: "/api/v1/cart/items", session: sess, body: AddItemRequestDTO{ProductID: "h1", Quantity: 2}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies(), "existing session keeps its cookie")

	rec = s.do(t, call{method: "POST", path: "/api/v1/cart/items", session: sess, body: AddItemRequestDTO{ProductID: "h1", Quantity: 1}})
	require.Equal(t, http.StatusCreated, rec.Code)
	c := decode[CartResponseDTO](t, rec)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.TotalItems)
	assert.Equal(t, int64(1350), c.TotalPrice)
	assert.Equal(t, int64(1350), c.Lines[0].Subtotal)

	rec = s.do(t, call{method: "PUT", path: "/api/v1/cart/items/h1", session: sess, body: UpdateQuantityRequestDTO{Quantity: 0}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[CartResponseDTO](t, rec).TotalItems)

	rec = s.do(t, call{method: "DELETE", path: "/api/v1/cart/items/h1", session: sess})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[CartResponseDTO](t, rec).Lines)

	rec = s.do(t, call{method: "GET", path: "/api/v1/cart", session: "someone-else"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[CartResponseDTO](t, rec).TotalItems)
}

func TestCart_AddItemErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, call{method: "POST", path: "/api/v1/cart/items", session: "s", body: AddItemRequestDTO{ProductID: "missing", Quantity: 1}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, call{method: "POST", path: "/api/v1/cart/items", session: "s", body: AddItemRequestDTO{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_product_id", decode[ErrorResponse](t, rec).Code)

	req := httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader([]byte("invalid json")))
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCheckout(t *testing.T) {
	s := newTestServer(t)
	const sess = "sess-checkout"

	rec := s.do(t, call{method: "POST", path: "/api/v1/checkout", session: sess, body: PlaceOrderRequestDTO{Customer: shopper}})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "empty_cart", decode[ErrorResponse](t, rec).Code)

	s.do(t, call{method: "POST", path: "/api/v1/cart/items", session: sess, body: AddItemRequestDTO{ProductID: "h1", Quantity: 2}})

	rec = s.do(t, call{method: "POST", path: "/api/v1/checkout", session: sess, body: PlaceOrderRequestDTO{Customer: shopper, IdempotencyKey: "key-1"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[domain.Order](t, rec)
	assert.Equal(t, int64(900), order.TotalAmount)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	rec = s.do(t, call{method: "GET", path: "/api/v1/cart", session: sess})
	assert.Zero(t, decode[CartResponseDTO](t, rec).TotalItems, "cart cleared after checkout")

	rec = s.do(t, call{method: "POST", path: "/api/v1/checkout", session: sess, body: PlaceOrderRequestDTO{Customer: shopper, IdempotencyKey: "key-1"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, order.ID, decode[domain.Order](t, rec).ID)

	rec = s.do(t, call{method: "GET", path: "/api/v1/orders", session: sess})
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decode[OrdersResponseDTO](t, rec).Orders
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
}

func TestOrders_OnlyVisibleToOwningSession(t *testing.T) {
	s := newTestServer(t)
	const sess = "sess-owner"
	s.do(t, call{method: "POST", path: "/api/v1/cart/items", session: sess, body: AddItemRequestDTO{ProductID: "h1", Quantity: 1}})
	rec := s.do(t, call{method: "POST", path: "/api/v1/checkout", session: sess, body: PlaceOrderRequestDTO{Customer: shopper}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Knowing the email is not enough: the query parameter is ignored.
	for _, c := range []call{
		{method: "GET", path: "/api/v1/orders?email=" + shopper.Email},
		{method: "GET", path: "/api/v1/orders?email=" + shopper.Email, session: "sess-stranger"},
	} {
		rec = s.do(t, c)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[OrdersResponseDTO](t, rec).Orders)
	}

	rec = s.do(t, call{method: "GET", path: "/api/v1/admin/orders?email=" + shopper.Email})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, call{method: "GET", path: "/api/v1/admin/orders?email=" + shopper.Email, token: s.login(t)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[OrdersResponseDTO](t, rec).Orders, 1)
}

func TestCheckout_InvalidCustomer(t *testing.T) {
	s := newTestServer(t)
	s.do(t, call{method: "POST", path: "/api/v1/cart/items", session: "s", body: AddItemRequestDTO{ProductID: "h1", Quantity: 1}})

	rec := s.do(t, call{method: "POST", path: "/api/v1/checkout", session: "s", body: PlaceOrderRequestDTO{Customer: domain.Customer{Name: "Sita"}}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_argument", decode[ErrorResponse](t, rec).Code)
}

func TestContact(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, call{method: "POST", path: "/api/v1/contact", body: ContactRequestDTO{Name: "Ram", Email: "ram@example.com", Message: "Do you ship to Butwal?"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[ContactResponseDTO](t, rec)
	assert.NotEmpty(t, resp.ID)
	assert.True(t, resp.Delivered)

	rec = s.do(t, call{method: "POST", path: "/api/v1/contact", body: ContactRequestDTO{Name: "Ram", Email: "nope", Message: "hi"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssistant(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, call{method: "POST", path: "/api/v1/assistant/navigate", body: NavigateRequestDTO{Page: "products", Category: "Jadibuti"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/products?category=Jadibuti", decode[assistant.NavigateResult](t, rec).Path)

	rec = s.do(t, call{method: "POST", path: "/api/v1/assistant/cart", session: "voice", body: AddToCartRequestDTO{ProductName: "timur", Quantity: 3}})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[assistant.AddResult](t, rec)
	assert.True(t, res.Found)
	assert.Equal(t, "Added 3 units of Timur (Sichuan Pepper) to the cart. Price: Rs. 450.", res.Message)

	rec = s.do(t, call{method: "GET", path: "/api/v1/cart", session: "voice"})
	assert.Equal(t, 3, decode[CartResponseDTO](t, rec).TotalItems)
}

func TestAdmin_RequiresSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, call{method: "POST", path: "/api/v1/admin/products", body: domain.ProductFields{Name: "Yarsagumba", Price: 9000}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, call{method: "POST", path: "/api/v1/admin/products", token: "forged", body: domain.ProductFields{Name: "Yarsagumba", Price: 9000}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, call{method: "POST", path: "/api/v1/admin/login", body: LoginRequestDTO{Email: adminEmail, Password: "wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Len(t, s.catalog.ListProducts(t.Context()), 11)
}

func TestAdmin_ProductLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.do(t, call{method: "POST", path: "/api/v1/admin/products", token: token, body: domain.ProductFields{Name: "Yarsagumba", Category: "herbs", Price: 9000}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.Product](t, rec)
	assert.Equal(t, domain.CategoryHerbs, created.Category)

	price := int64(9500)
	rec = s.do(t, call{method: "PATCH", path: "/api/v1/admin/products/" + created.ID, token: token, body: domain.ProductPatch{Price: &price}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, price, decode[domain.Product](t, rec).Price)

	rec = s.do(t, call{method: "PATCH", path: "/api/v1/admin/products/missing", token: token, body: domain.ProductPatch{Price: &price}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, call{method: "DELETE", path: "/api/v1/admin/products/" + created.ID, token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[DeleteResponseDTO](t, rec).Removed)

	rec = s.do(t, call{method: "POST", path: "/api/v1/admin/products", token: token, body: domain.ProductFields{Price: 10}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, call{method: "POST", path: "/api/v1/admin/logout", token: token})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, call{method: "DELETE", path: "/api/v1/admin/products/h1", token: token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_RegisterAdmin(t *testing.T) {
	s := newTestServer(t)
	newAdmin := LoginRequestDTO{Email: "Ops@Himalayan.example", Password: "namaste-123"}

	rec := s.do(t, call{method: "POST", path: "/api/v1/admin/admins", body: newAdmin})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := s.login(t)
	rec = s.do(t, call{method: "POST", path: "/api/v1/admin/admins", token: token, body: newAdmin})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "ops@himalayan.example", decode[RegisterAdminResponseDTO](t, rec).Email)

	rec = s.do(t, call{method: "POST", path: "/api/v1/admin/admins", token: token, body: newAdmin})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, call{method: "POST", path: "/api/v1/admin/admins", token: token, body: LoginRequestDTO{Email: "x@himalayan.example", Password: "short"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, call{method: "POST", path: "/api/v1/admin/login", body: newAdmin})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[session.Session](t, rec).Token)
}

func TestAdmin_Slides(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	for i, active := range []bool{true, false} {
		rec := s.do(t, call{method: "POST", path: "/api/v1/admin/slides", token: token, body: domain.SlideFields{Title: fmt.Sprintf("Slide %d", i+1), Active: active}})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.do(t, call{method: "GET", path: "/api/v1/admin/slides", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]domain.HeroSlide](t, rec)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].Order)
	assert.Equal(t, 2, all[1].Order)

	rec = s.do(t, call{method: "GET", path: "/api/v1/slides"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.HeroSlide](t, rec), 1)

	title := "Renamed"
	rec = s.do(t, call{method: "PATCH", path: "/api/v1/admin/slides/" + all[1].ID, token: token, body: domain.SlidePatch{Title: &title}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, title, decode[domain.HeroSlide](t, rec).Title)

	rec = s.do(t, call{method: "DELETE", path: "/api/v1/admin/slides/" + all[0].ID, token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[DeleteResponseDTO](t, rec).Removed)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: bad", domain.ErrInvalidInput), http.StatusBadRequest, "invalid_argument"},
		{domain.ErrNotFound, http.StatusNotFound, "not_found"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{domain.ErrUnsupportedOperation, http.StatusMethodNotAllowed, "unsupported_operation"},
		{domain.ErrEmptyCart, http.StatusConflict, "empty_cart"},
		{domain.ErrConflict, http.StatusConflict, "already_exists"},
		{fmt.Errorf("%w: smtp down", contact.ErrRelay), http.StatusBadGateway, "relay_failed"},
		{domain.NewPersistenceError("insert product", "sql", errors.New("disk full")), http.StatusServiceUnavailable, "persistence_error"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handleError(rec, zap.NewNop(), tt.err)
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
		assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
	}
}
