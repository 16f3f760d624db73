package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	checkout *checkout.Service
	timeout  time.Duration
	log      *zap.Logger
}

func NewCheckoutHandler(service *checkout.Service, timeout time.Duration, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: service,
		timeout:  timeout,
		log:      log,
	}
}

type PlaceOrderRequestDTO struct {
	IdempotencyKey string          `json:"idempotency_key"`
	Customer       domain.Customer `json:"customer"`
}

type OrdersResponseDTO struct {
	Orders []*domain.Order `json:"orders"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PlaceOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}

	order, err := h.checkout.PlaceOrder(ctx, getSessionIDFromContext(r.Context()), req.Customer, req.IdempotencyKey)
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// GET /api/v1/orders lists the orders placed from the caller's cart session.
func (h *CheckoutHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.checkout.ListOrders(ctx, getSessionIDFromContext(r.Context()))
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, OrdersResponseDTO{Orders: orders})
}
