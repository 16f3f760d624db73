// Package assistant implements the two callbacks the voice assistant may
// invoke: navigation and adding a product to the cart by name.
package assistant

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

type NavigateResult struct {
	Path    string `json:"path"`
	Message string `json:"result"`
}

var pagePaths = map[string]string{
	"products": "/products",
	"cart":     "/cart",
	"contact":  "/contact",
}

// Navigate maps a page name to a storefront path. Unknown pages go home. A
// category filter wins over a search query.
func Navigate(page, category, searchQuery string) NavigateResult {
	page = strings.ToLower(strings.TrimSpace(page))
	path, ok := pagePaths[page]
	if !ok {
		path = "/"
	}

	category = strings.TrimSpace(category)
	searchQuery = strings.TrimSpace(searchQuery)
	switch {
	case category != "":
		path += "?" + url.Values{"category": {category}}.Encode()
	case searchQuery != "":
		path += "?" + url.Values{"search": {searchQuery}}.Encode()
	}

	return NavigateResult{
		Path:    path,
		Message: fmt.Sprintf("Navigation successful. User is now viewing %s.", page),
	}
}

type ProductLister interface {
	ListProducts(ctx context.Context) []domain.Product
}

type AddResult struct {
	Found    bool           `json:"found"`
	Product  domain.Product `json:"product,omitempty"`
	Quantity int            `json:"quantity,omitempty"`
	Message  string         `json:"result"`
}

// AddProductToCart adds the first catalog product whose name contains
// productName (case-insensitive) or whose localized name contains it. A
// quantity below 1 means 1. An unknown product is a normal result; only a
// failed cart write is an error.
func AddProductToCart(ctx context.Context, products ProductLister, engine *cart.Engine, productName string, quantity int) (AddResult, error) {
	product, ok := domain.FindProduct(products.ListProducts(ctx), productName)
	if !ok {
		return AddResult{Message: fmt.Sprintf("Product '%s' not found.", strings.TrimSpace(productName))}, nil
	}

	quantity = domain.ClampQuantity(quantity)
	if err := engine.Add(ctx, product, quantity); err != nil {
		return AddResult{}, err
	}
	return AddResult{
		Found:    true,
		Product:  product,
		Quantity: quantity,
		Message:  fmt.Sprintf("Added %d units of %s to the cart. Price: Rs. %d.", quantity, product.Name, product.Price),
	}, nil
}
