package catalog

import (
	_ "embed"
	"encoding/json"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

//go:embed default_products.json
var defaultProductsJSON []byte

// DefaultProducts is the storefront's built-in catalog, used to seed empty
// local stores and by the seed command.
func DefaultProducts() []domain.Product {
	var products []domain.Product
	if err := json.Unmarshal(defaultProductsJSON, &products); err != nil {
		panic("catalog: corrupt default_products.json: " + err.Error())
	}
	return products
}
