package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/contact"
	"go.uber.org/zap"
)

type ContactHandler struct {
	contact *contact.Service
	timeout time.Duration
	log     *zap.Logger
}

func NewContactHandler(service *contact.Service, timeout time.Duration, log *zap.Logger) *ContactHandler {
	return &ContactHandler{contact: service, timeout: timeout, log: log}
}

type ContactRequestDTO struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type ContactResponseDTO struct {
	ID        string `json:"id"`
	Delivered bool   `json:"delivered"`
}

// POST /api/v1/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ContactRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.contact.Submit(ctx, req.Name, req.Email, req.Message)
	if errors.Is(err, contact.ErrRelay) {
		// Stored but not delivered; the shopper is told so.
		respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   err.Error(),
			Code:    "relay_failed",
			Details: msg.ID,
		})
		return
	}
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, ContactResponseDTO{ID: msg.ID, Delivered: true})
}
