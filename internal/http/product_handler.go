package http

import (
	"net/http"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/slides"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	catalog *catalog.Catalog
	slides  *slides.Service
}

func NewProductHandler(catalog *catalog.Catalog, slides *slides.Service) *ProductHandler {
	return &ProductHandler{catalog: catalog, slides: slides}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
	ReadOnly bool             `json:"read_only"`
}

// GET /api/v1/products[?category=][&search=]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	var category domain.Category
	if label := r.URL.Query().Get("category"); label != "" {
		c, ok := domain.LookupCategory(label)
		if !ok {
			respondError(w, http.StatusBadRequest, "invalid_category", "unknown category")
			return
		}
		category = c
	}
	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))

	all := h.catalog.ListProducts(r.Context())
	products := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if category != "" && p.Category != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.LocalName), search) {
			continue
		}
		products = append(products, p)
	}
	domain.SortProducts(products)

	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products, ReadOnly: h.catalog.ReadOnly()})
}

// GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := h.catalog.GetProduct(r.Context(), id)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// GET /api/v1/slides
func (h *ProductHandler) ActiveSlides(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.slides.ListActive(r.Context()))
}
