package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AdminHandler struct {
	admin    *admin.Service
	sessions *session.Manager
	timeout  time.Duration
	log      *zap.Logger
}

func NewAdminHandler(service *admin.Service, sessions *session.Manager, timeout time.Duration, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		admin:    service,
		sessions: sessions,
		timeout:  timeout,
		log:      log,
	}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type DeleteResponseDTO struct {
	Removed bool `json:"removed"`
}

// POST /api/v1/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// POST /api/v1/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := getAdminFromContext(r.Context()); sess != nil {
		h.sessions.Logout(sess.Token)
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/admin/products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var fields domain.ProductFields
	if !decodeJSON(w, r, &fields) {
		return
	}
	p, err := h.admin.CreateProduct(ctx, getAdminFromContext(r.Context()), fields)
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// PATCH /api/v1/admin/products/{id}
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var patch domain.ProductPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	p, err := h.admin.UpdateProduct(ctx, getAdminFromContext(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// DELETE /api/v1/admin/products/{id}
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	removed, err := h.admin.DeleteProduct(ctx, getAdminFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, DeleteResponseDTO{Removed: removed})
}

// GET /api/v1/admin/slides
func (h *AdminHandler) ListSlides(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	all, err := h.admin.ListSlides(ctx, getAdminFromContext(r.Context()))
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, all)
}

// POST /api/v1/admin/slides
func (h *AdminHandler) CreateSlide(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var fields domain.SlideFields
	if !decodeJSON(w, r, &fields) {
		return
	}
	s, err := h.admin.CreateSlide(ctx, getAdminFromContext(r.Context()), fields)
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, s)
}

// PATCH /api/v1/admin/slides/{id}
func (h *AdminHandler) UpdateSlide(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var patch domain.SlidePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	s, err := h.admin.UpdateSlide(ctx, getAdminFromContext(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

// DELETE /api/v1/admin/slides/{id}
func (h *AdminHandler) DeleteSlide(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	removed, err := h.admin.DeleteSlide(ctx, getAdminFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, DeleteResponseDTO{Removed: removed})
}

// GET /api/v1/admin/orders?email=
func (h *AdminHandler) OrdersByEmail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.admin.OrdersByEmail(ctx, getAdminFromContext(r.Context()), r.URL.Query().Get("email"))
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, OrdersResponseDTO{Orders: orders})
}

type RegisterAdminResponseDTO struct {
	Email string `json:"email"`
}

// POST /api/v1/admin/admins
func (h *AdminHandler) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.admin.RegisterAdmin(ctx, getAdminFromContext(r.Context()), req.Email, req.Password); err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, RegisterAdminResponseDTO{Email: strings.ToLower(strings.TrimSpace(req.Email))})
}
