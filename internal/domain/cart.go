package domain

import "time"

// Cart is one shopper's selection. Totals are derived from Lines on every
// read and never stored.
type Cart struct {
	SessionID string     `json:"session_id" bson:"session_id"`
	Lines     []CartLine `json:"lines" bson:"lines"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`

	// SettledOrders lists the most recent orders already taken out of this
	// cart, newest last.
	SettledOrders []string `json:"settled_orders,omitempty" bson:"settled_orders,omitempty"`
}

// CartLine references a product by id. Product is the snapshot taken when the
// line was added; it is used for display and as a price fallback only.
type CartLine struct {
	ProductID string    `json:"product_id" bson:"product_id"`
	Product   Product   `json:"product" bson:"product"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	AddedAt   time.Time `json:"added_at" bson:"added_at"`
}

// PriceFunc returns the current unit price of a product, false when the
// catalog no longer knows it.
type PriceFunc func(productID string) (int64, bool)

func ClampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

func (c *Cart) TotalItems() int {
	var count int
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// TotalPrice sums quantity x current unit price. Carts show live pricing: a
// catalog price change after the add is reflected here. Lines whose product
// vanished from the catalog use the snapshot price.
func (c *Cart) TotalPrice(price PriceFunc) int64 {
	var total int64
	for _, line := range c.Lines {
		total += int64(line.Quantity) * line.UnitPrice(price)
	}
	return total
}

func (l CartLine) UnitPrice(price PriceFunc) int64 {
	if price != nil {
		if p, ok := price(l.ProductID); ok {
			return p
		}
	}
	return l.Product.Price
}

func (c *Cart) Line(productID string) (CartLine, bool) {
	for _, line := range c.Lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return CartLine{}, false
}
