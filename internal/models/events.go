package models

import "time"

// Event types
const (
	EventTypeCheckoutPlaced        = "CHECKOUT_PLACED"
	EventTypeCheckoutCompleted     = "CHECKOUT_COMPLETED"
	EventTypeCheckoutPaymentFailed = "CHECKOUT_PAYMENT_FAILED"
	EventTypeCheckoutCancelled     = "CHECKOUT_CANCELLED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckoutPlacedEvent published when the order service accepted the order
type CheckoutPlacedEvent struct {
	BaseEvent
	AttemptID  string  `json:"attempt_id"`
	OrderID    int64   `json:"order_id"`
	UserID     int64   `json:"user_id"`
	TotalPrice float64 `json:"total_price"`
	ItemCount  int     `json:"item_count"`
}

// CheckoutCompletedEvent published when the attempt finalized (cart cleared,
// receipt written)
type CheckoutCompletedEvent struct {
	BaseEvent
	AttemptID     string `json:"attempt_id"`
	OrderID       int64  `json:"order_id"`
	UserID        int64  `json:"user_id"`
	PaymentStatus string `json:"payment_status"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// CheckoutPaymentFailedEvent published when payment failed after placement.
// The order still exists server-side; nothing is reversed.
type CheckoutPaymentFailedEvent struct {
	BaseEvent
	AttemptID string `json:"attempt_id"`
	OrderID   int64  `json:"order_id"`
	UserID    int64  `json:"user_id"`
	Reason    string `json:"reason"`
}

// CheckoutCancelledEvent published when the user cancelled a pending attempt
type CheckoutCancelledEvent struct {
	BaseEvent
	AttemptID string `json:"attempt_id"`
	UserID    int64  `json:"user_id"`
	State     string `json:"state"`
}
