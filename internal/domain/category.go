package domain

import "strings"

type Category string

const (
	CategoryHerbs  Category = "Jadibuti"
	CategoryFruits Category = "Local Fruits"

	// DefaultCategory receives every feed label the mapping table does not know.
	DefaultCategory = CategoryFruits
)

var Categories = []Category{CategoryHerbs, CategoryFruits}

// categoryLabels maps lower-cased, trimmed labels seen in feeds and admin
// forms onto the canonical categories.
var categoryLabels = map[string]Category{
	"jadibuti":         CategoryHerbs,
	"herbs":            CategoryHerbs,
	"jadibuti (herbs)": CategoryHerbs,
	"local fruits":     CategoryFruits,
	"local fruit":      CategoryFruits,
	"fruits":           CategoryFruits,
}

func (c Category) Valid() bool {
	return c == CategoryHerbs || c == CategoryFruits
}

func (c Category) String() string {
	return string(c)
}

// LookupCategory resolves label through the mapping table.
func LookupCategory(label string) (Category, bool) {
	c, ok := categoryLabels[strings.ToLower(strings.TrimSpace(label))]
	return c, ok
}

// NormalizeCategory resolves label and falls back to def for unmapped labels,
// so a product with an unknown label is still listed.
func NormalizeCategory(label string, def Category) Category {
	if c, ok := LookupCategory(label); ok {
		return c
	}
	if !def.Valid() {
		return DefaultCategory
	}
	return def
}
