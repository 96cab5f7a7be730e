package checkout

import (
	"testing"

	"checkout-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(productID int64, qty int, price string) models.CartLine {
	return models.CartLine{
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
	}
}

func TestComputeTotalsFlatShipping(t *testing.T) {
	// 2 x 10.00 = 20.00 subtotal, 1.60 tax, 9.99 shipping, 31.59 total.
	totals := ComputeTotals([]models.CartLine{line(1, 2, "10.00")})

	assert.Equal(t, "20.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "1.60", totals.Tax.StringFixed(2))
	assert.Equal(t, "9.99", totals.Shipping.StringFixed(2))
	assert.Equal(t, "31.59", totals.Total.StringFixed(2))
}

func TestComputeTotalsFreeShipping(t *testing.T) {
	totals := ComputeTotals([]models.CartLine{line(1, 3, "25.00")})

	assert.Equal(t, "75.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "6.00", totals.Tax.StringFixed(2))
	assert.True(t, totals.Shipping.IsZero())
	assert.Equal(t, "81.00", totals.Total.StringFixed(2))
}

func TestComputeTotalsThresholdIsExclusive(t *testing.T) {
	// Exactly 50.00 still pays the flat fee.
	totals := ComputeTotals([]models.CartLine{line(1, 2, "25.00")})

	assert.Equal(t, "9.99", totals.Shipping.StringFixed(2))
	assert.Equal(t, "63.99", totals.Total.StringFixed(2))
}

func TestComputeTotalsRounding(t *testing.T) {
	// 3 x 3.33 = 9.99; tax 0.7992 rounds to 0.80.
	totals := ComputeTotals([]models.CartLine{line(1, 3, "3.33")})

	assert.Equal(t, "9.99", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "0.80", totals.Tax.StringFixed(2))
	assert.Equal(t, "20.78", totals.Total.StringFixed(2))
}

func TestComputeTotalsDegradedLinesContributeNothing(t *testing.T) {
	lines := []models.CartLine{
		line(1, 2, "10.00"),
		{ProductID: 2, Quantity: 5, Name: placeholderName, UnitPrice: decimal.Zero, Degraded: true},
	}

	totals := ComputeTotals(lines)

	assert.Equal(t, "20.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "31.59", totals.Total.StringFixed(2))
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := ComputeTotals(nil)

	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Tax.IsZero())
	assert.Equal(t, "9.99", totals.Shipping.StringFixed(2))
}
