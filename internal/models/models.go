package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is a cart entry after catalog enrichment. Degraded lines carry
// placeholder attributes and a zero price when the catalog lookup failed.
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand,omitempty"`
	ImageURL  string          `json:"image_url,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Degraded  bool            `json:"degraded,omitempty"`
}

// Subtotal returns quantity times unit price.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals is the single source of truth for checkout arithmetic,
// all values rounded to two decimal places.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Order is the read-only cached copy of an order owned by the order service.
type Order struct {
	ID         int64       `json:"id"`
	UserID     int64       `json:"userId"`
	Status     string      `json:"status"`
	TotalPrice float64     `json:"totalPrice"`
	Address    string      `json:"address"`
	Phone      string      `json:"phoneno"`
	OrderDate  string      `json:"orderDate,omitempty"`
	Items      []OrderLine `json:"items,omitempty"`
}

// OrderLine is a line item inside an order payload.
type OrderLine struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// PaymentResult is the payment service outcome for an order.
type PaymentResult struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status,omitempty"`
}

// Order statuses, owned by the order service.
const (
	OrderStatusNew        = "NEW"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusPaid       = "PAID"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// Payment statuses recorded on receipts.
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
)

var orderTransitions = map[string][]string{
	OrderStatusNew:        {OrderStatusProcessing, OrderStatusPaid, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:       {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// CanTransition reports whether an order status change is allowed.
// Transitions are monotonic: NEW -> PROCESSING -> PAID -> SHIPPED -> DELIVERED,
// with CANCELLED reachable from NEW and PROCESSING only.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ReceiptSchemaVersion is bumped whenever the receipt layout changes.
const ReceiptSchemaVersion = 1

// ReceiptItem is a snapshot of a purchased line at checkout time.
type ReceiptItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Brand     string  `json:"brand,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Total     float64 `json:"total"`
	ImageURL  string  `json:"image_url,omitempty"`
}

// Receipt is the cached snapshot of a successfully placed order, written once
// after placement and read by the confirmation view. It is a cache, not the
// source of truth; the reconciler refreshes it from the order service.
type Receipt struct {
	SchemaVersion int           `json:"schema_version"`
	OrderID       int64         `json:"order_id"`
	UserID        int64         `json:"user_id"`
	Status        string        `json:"status"`
	Subtotal      float64       `json:"subtotal"`
	Tax           float64       `json:"tax"`
	Shipping      float64       `json:"shipping"`
	TotalPrice    float64       `json:"total_price"`
	Address       string        `json:"address"`
	Phone         string        `json:"phone"`
	PaymentMethod string        `json:"payment_method"`
	PaymentStatus string        `json:"payment_status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	Items         []ReceiptItem `json:"items"`
	OrderDate     time.Time     `json:"order_date"`
	ReconciledAt  *time.Time    `json:"reconciled_at,omitempty"`
}
