package domain

import (
	"sort"
	"strings"
)

// Product is a catalog entry. Price is in minor currency units.
type Product struct {
	ID          string   `json:"id" bson:"_id"`
	Name        string   `json:"name" bson:"name"`
	LocalName   string   `json:"nepaliName" bson:"nepali_name"`
	Category    Category `json:"category" bson:"category"`
	Price       int64    `json:"price" bson:"price"`
	Description string   `json:"description" bson:"description"`
	Benefits    string   `json:"benefits" bson:"benefits"`
	ImageURL    string   `json:"image" bson:"image"`
}

// ProductFields is everything an admin supplies when creating a product.
type ProductFields struct {
	Name        string   `json:"name"`
	LocalName   string   `json:"nepaliName"`
	Category    Category `json:"category"`
	Price       int64    `json:"price"`
	Description string   `json:"description"`
	Benefits    string   `json:"benefits"`
	ImageURL    string   `json:"image"`
}

func (f ProductFields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return invalid("product name is required")
	}
	if f.Price < 0 {
		return invalid("product price must be zero or positive")
	}
	return nil
}

// WithID builds the stored record. The category is normalized through the
// mapping table with def as fallback.
func (f ProductFields) WithID(id string, def Category) Product {
	return Product{
		ID:          id,
		Name:        strings.TrimSpace(f.Name),
		LocalName:   f.LocalName,
		Category:    NormalizeCategory(string(f.Category), def),
		Price:       f.Price,
		Description: f.Description,
		Benefits:    f.Benefits,
		ImageURL:    f.ImageURL,
	}
}

// ProductPatch names the fields an update may touch. Nil means omitted.
type ProductPatch struct {
	Name        *string   `json:"name,omitempty"`
	LocalName   *string   `json:"nepaliName,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Price       *int64    `json:"price,omitempty"`
	Description *string   `json:"description,omitempty"`
	Benefits    *string   `json:"benefits,omitempty"`
	ImageURL    *string   `json:"image,omitempty"`
}

func (p ProductPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return invalid("product name must not be empty")
	}
	if p.Price != nil && *p.Price < 0 {
		return invalid("product price must be zero or positive")
	}
	return nil
}

func (p ProductPatch) IsEmpty() bool {
	return p == ProductPatch{}
}

// Apply merges the patch over current. The identifier never changes.
func (p ProductPatch) Apply(current Product, def Category) Product {
	out := current
	if p.Name != nil {
		out.Name = strings.TrimSpace(*p.Name)
	}
	if p.LocalName != nil {
		out.LocalName = *p.LocalName
	}
	if p.Category != nil {
		out.Category = NormalizeCategory(string(*p.Category), def)
	}
	if p.Price != nil {
		out.Price = *p.Price
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Benefits != nil {
		out.Benefits = *p.Benefits
	}
	if p.ImageURL != nil {
		out.ImageURL = *p.ImageURL
	}
	return out
}

// SortProducts orders products for display: category, then name.
func SortProducts(products []Product) {
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Category != products[j].Category {
			return products[i].Category < products[j].Category
		}
		return strings.ToLower(products[i].Name) < strings.ToLower(products[j].Name)
	})
}

// FindProduct returns the first product matching query by name
// (case-insensitive) or by localized name.
func FindProduct(products []Product, query string) (Product, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Product{}, false
	}
	lower := strings.ToLower(q)
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), lower) || strings.Contains(p.LocalName, q) {
			return p, true
		}
	}
	return Product{}, false
}
