package checkout

import (
	"errors"
	"fmt"
)

// ErrNoReceipt is returned when the user has no cached receipt.
var ErrNoReceipt = errors.New("no receipt found")

// ErrEmptyCart is returned when a checkout is started on an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// CartUnavailableError is returned when the cart service errors or the
// session carries no user id. Callers should redirect to login in the
// unauthenticated case.
type CartUnavailableError struct {
	Reason string
	Err    error
}

func (e *CartUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cart unavailable: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("cart unavailable: %s", e.Reason)
}

func (e *CartUnavailableError) Unwrap() error { return e.Err }

// ValidationError blocks submission locally; it is shown inline and never
// reaches the order service.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// OrderPlacementError aborts the whole attempt. The cart must stay untouched
// and no receipt may be written when this is returned.
type OrderPlacementError struct {
	Err error
}

func (e *OrderPlacementError) Error() string {
	return fmt.Sprintf("order placement failed: %v", e.Err)
}

func (e *OrderPlacementError) Unwrap() error { return e.Err }

// PaymentError marks a failed payment for an order that already exists
// server-side. It never reverses the placement.
type PaymentError struct {
	OrderID int64
	Err     error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment failed for order %d: %v", e.OrderID, e.Err)
}

func (e *PaymentError) Unwrap() error { return e.Err }
