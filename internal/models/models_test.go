package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{OrderStatusNew, OrderStatusProcessing, true},
		{OrderStatusNew, OrderStatusPaid, true},
		{OrderStatusNew, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusPaid, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusPaid, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},

		{OrderStatusNew, OrderStatusDelivered, false},
		{OrderStatusNew, OrderStatusShipped, false},
		{OrderStatusPaid, OrderStatusCancelled, false},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusShipped, false},
		{OrderStatusPaid, OrderStatusNew, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestCartLineSubtotal(t *testing.T) {
	line := CartLine{Quantity: 3, UnitPrice: decimal.RequireFromString("3.33")}
	assert.Equal(t, "9.99", line.Subtotal().StringFixed(2))

	degraded := CartLine{Quantity: 5, UnitPrice: decimal.Zero, Degraded: true}
	assert.True(t, degraded.Subtotal().IsZero())
}
