package checkout

import (
	"checkout-service/internal/models"

	"github.com/shopspring/decimal"
)

var (
	taxRate          = decimal.NewFromFloat(0.08)
	flatShippingFee  = decimal.NewFromFloat(9.99)
	freeShippingOver = decimal.NewFromInt(50)
)

// ComputeTotals derives subtotal, tax, shipping and total from enriched cart
// lines. Degraded lines carry a zero price and contribute nothing to the
// subtotal. All values are rounded half-up to two decimal places.
func ComputeTotals(lines []models.CartLine) models.Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal())
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(taxRate).Round(2)

	shipping := flatShippingFee
	if subtotal.GreaterThan(freeShippingOver) {
		shipping = decimal.Zero
	}

	return models.Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping).Round(2),
	}
}
