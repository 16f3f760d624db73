package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/session"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	SecureCookies      bool
}

type Handlers struct {
	Products  *ProductHandler
	Cart      *CartHandler
	Checkout  *CheckoutHandler
	Contact   *ContactHandler
	Assistant *AssistantHandler
	Admin     *AdminHandler
	Sessions  *session.Manager
}

// NewRouter mounts the storefront API. The returned handler is traced with
// otelhttp.
func NewRouter(cfg RouterConfig, h Handlers, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", h.Products.List)
		r.Get("/products/{id}", h.Products.Get)
		r.Get("/slides", h.Products.ActiveSlides)
		r.Post("/contact", h.Contact.Submit)
		r.Post("/assistant/navigate", h.Assistant.Navigate)

		r.Group(func(r chi.Router) {
			r.Use(CartSession(cfg.SecureCookies))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
				r.Delete("/items/{product_id}", h.Cart.RemoveItem)
			})
			r.Post("/checkout", h.Checkout.PlaceOrder)
			r.Get("/orders", h.Checkout.ListOrders)
			r.Post("/assistant/cart", h.Assistant.AddToCart)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.Admin.Login)

			r.Group(func(r chi.Router) {
				r.Use(AdminAuth(h.Sessions))

				r.Post("/logout", h.Admin.Logout)
				r.Post("/products", h.Admin.CreateProduct)
				r.Patch("/products/{id}", h.Admin.UpdateProduct)
				r.Delete("/products/{id}", h.Admin.DeleteProduct)
				r.Get("/slides", h.Admin.ListSlides)
				r.Post("/slides", h.Admin.CreateSlide)
				r.Patch("/slides/{id}", h.Admin.UpdateSlide)
				r.Delete("/slides/{id}", h.Admin.DeleteSlide)
				r.Get("/orders", h.Admin.OrdersByEmail)
				r.Post("/admins", h.Admin.RegisterAdmin)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
