package order

import (
	"github.com/shopspring/decimal"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/services"
)

// Totals are the derived aggregates of an order
type Totals struct {
	Items int
	Total decimal.Decimal
}

// Aggregate sums quantities and price × quantity over items.
// It does no I/O and the result does not depend on the order of items.
func Aggregate(items []models.CartItem) Totals {
	totals := Totals{Total: decimal.Zero}
	for _, item := range items {
		totals.Items += item.Quantity
		totals.Total = totals.Total.Add(item.Subtotal())
	}
	return totals
}

// Validate rejects non-positive aggregates, which can only come from
// line items that slipped past input validation.
func (t Totals) Validate() error {
	if t.Items <= 0 || !t.Total.IsPositive() {
		return services.ErrOrderIntegrity.
			WithDetail("items", t.Items).
			WithDetail("total", t.Total.String())
	}
	return nil
}

// Apply writes the aggregates onto o
func (t Totals) Apply(o *models.Order) {
	o.Items = t.Items
	o.Total = t.Total
}

func values(items []*models.CartItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out
}
