package cart

import (
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Every mutation is a pure function of the previous line slice: it never
// writes into prev, so a snapshot handed out earlier stays valid.

func addLine(prev []domain.CartLine, product domain.Product, quantity int, now time.Time) []domain.CartLine {
	quantity = domain.ClampQuantity(quantity)
	next := make([]domain.CartLine, len(prev), len(prev)+1)
	copy(next, prev)

	for i := range next {
		if next[i].ProductID == product.ID {
			next[i].Quantity += quantity
			next[i].Product = product
			return next
		}
	}
	return append(next, domain.CartLine{
		ProductID: product.ID,
		Product:   product,
		Quantity:  quantity,
		AddedAt:   now,
	})
}

func removeLine(prev []domain.CartLine, productID string) []domain.CartLine {
	next := make([]domain.CartLine, 0, len(prev))
	for _, line := range prev {
		if line.ProductID != productID {
			next = append(next, line)
		}
	}
	return next
}

func setLineQuantity(prev []domain.CartLine, productID string, quantity int) []domain.CartLine {
	next := make([]domain.CartLine, len(prev))
	copy(next, prev)
	for i := range next {
		if next[i].ProductID == productID {
			next[i].Quantity = domain.ClampQuantity(quantity)
		}
	}
	return next
}

// settleLines subtracts the ordered quantities. A line whose quantity reaches
// zero is removed; lines and quantities added after the order stay.
func settleLines(prev, ordered []domain.CartLine) []domain.CartLine {
	take := make(map[string]int, len(ordered))
	for _, line := range ordered {
		take[line.ProductID] += line.Quantity
	}

	next := make([]domain.CartLine, 0, len(prev))
	for _, line := range prev {
		line.Quantity -= take[line.ProductID]
		if line.Quantity > 0 {
			next = append(next, line)
		}
	}
	return next
}

// rememberOrder appends orderID, keeping at most maxSettledOrders ids.
func rememberOrder(settled []string, orderID string) []string {
	next := append(append(make([]string, 0, len(settled)+1), settled...), orderID)
	if len(next) > maxSettledOrders {
		next = next[len(next)-maxSettledOrders:]
	}
	return next
}

// sanitize restores the line invariants on data read back from a store:
// one line per product, quantity at least 1, insertion order kept.
func sanitize(lines []domain.CartLine) []domain.CartLine {
	next := make([]domain.CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.ProductID == "" {
			continue
		}
		line.Quantity = domain.ClampQuantity(line.Quantity)
		if i, ok := index[line.ProductID]; ok {
			next[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(next)
		next = append(next, line)
	}
	return next
}
