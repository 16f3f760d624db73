package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/assistant"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"go.uber.org/zap"
)

// AssistantHandler exposes the voice assistant tool callbacks.
type AssistantHandler struct {
	carts   *cart.Manager
	catalog *catalog.Catalog
	timeout time.Duration
	log     *zap.Logger
}

func NewAssistantHandler(carts *cart.Manager, catalog *catalog.Catalog, timeout time.Duration, log *zap.Logger) *AssistantHandler {
	return &AssistantHandler{carts: carts, catalog: catalog, timeout: timeout, log: log}
}

type NavigateRequestDTO struct {
	Page        string `json:"page"`
	Category    string `json:"category"`
	SearchQuery string `json:"search_query"`
}

type AddToCartRequestDTO struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// POST /api/v1/assistant/navigate
func (h *AssistantHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, assistant.Navigate(req.Page, req.Category, req.SearchQuery))
}

// POST /api/v1/assistant/cart
func (h *AssistantHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddToCartRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	engine := h.carts.Session(ctx, getSessionIDFromContext(r.Context()))
	res, err := assistant.AddProductToCart(ctx, h.catalog, engine, req.ProductName, req.Quantity)
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
