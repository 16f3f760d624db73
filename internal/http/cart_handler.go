package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartHandler struct {
	carts   *cart.Manager
	catalog *catalog.Catalog
	timeout time.Duration
	log     *zap.Logger
}

func NewCartHandler(carts *cart.Manager, catalog *catalog.Catalog, timeout time.Duration, log *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: catalog,
		timeout: timeout,
		log:     log,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartLineDTO struct {
	ProductID string         `json:"product_id"`
	Product   domain.Product `json:"product"`
	Quantity  int            `json:"quantity"`
	UnitPrice int64          `json:"unit_price"`
	Subtotal  int64          `json:"subtotal"`
}

type CartResponseDTO struct {
	SessionID  string        `json:"session_id"`
	Lines      []CartLineDTO `json:"lines"`
	TotalItems int           `json:"total_items"`
	TotalPrice int64         `json:"total_price"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	engine := h.carts.Session(ctx, getSessionIDFromContext(r.Context()))
	respondJSON(w, http.StatusOK, h.toDTO(ctx, engine))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	product, ok := h.catalog.GetProduct(ctx, req.ProductID)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}

	engine := h.carts.Session(ctx, getSessionIDFromContext(r.Context()))
	if err := engine.Add(ctx, product, req.Quantity); err != nil {
		handleError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, h.toDTO(ctx, engine))
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	engine := h.carts.Session(ctx, getSessionIDFromContext(r.Context()))
	if err := engine.SetQuantity(ctx, productID, req.Quantity); err != nil {
		handleError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, h.toDTO(ctx, engine))
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	engine := h.carts.Session(ctx, getSessionIDFromContext(r.Context()))
	if err := engine.Remove(ctx, productID); err != nil {
		handleError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, h.toDTO(ctx, engine))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	engine := h.carts.Session(ctx, getSessionIDFromContext(r.Context()))
	if err := engine.Clear(ctx); err != nil {
		handleError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, h.toDTO(ctx, engine))
}

func (h *CartHandler) toDTO(ctx context.Context, engine *cart.Engine) CartResponseDTO {
	snapshot := engine.Snapshot()
	price := cart.PriceFunc(ctx, h.catalog)

	lines := make([]CartLineDTO, 0, len(snapshot.Lines))
	for _, l := range snapshot.Lines {
		unit := l.UnitPrice(price)
		lines = append(lines, CartLineDTO{
			ProductID: l.ProductID,
			Product:   l.Product,
			Quantity:  l.Quantity,
			UnitPrice: unit,
			Subtotal:  unit * int64(l.Quantity),
		})
	}
	return CartResponseDTO{
		SessionID:  snapshot.SessionID,
		Lines:      lines,
		TotalItems: snapshot.TotalItems(),
		TotalPrice: snapshot.TotalPrice(price),
		UpdatedAt:  snapshot.UpdatedAt,
	}
}
