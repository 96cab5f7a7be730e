package clients

import (
	"context"

	"checkout-service/internal/models"
)

// CardDetails carries card data for card payment methods only.
type CardDetails struct {
	CardNumber     string `json:"cardNumber"`
	ExpiryDate     string `json:"expiryDate"`
	CVV            string `json:"cvv"`
	CardholderName string `json:"cardholderName"`
}

// CustomerInfo is the payer contact block attached to a payment.
type CustomerInfo struct {
	Address     string `json:"address"`
	PhoneNumber string `json:"phoneNumber"`
}

// PaymentRequest is the payment service's charge payload. It is constructed
// only when the payment method is not cash-on-delivery.
type PaymentRequest struct {
	OrderID        int64        `json:"orderId"`
	Amount         float64      `json:"amount"`
	Currency       string       `json:"currency"`
	PaymentMethod  string       `json:"paymentMethod"`
	PaymentDetails *CardDetails `json:"paymentDetails,omitempty"`
	UserID         int64        `json:"userId"`
	CustomerInfo   CustomerInfo `json:"customerInfo"`
}

// PaymentClient talks to the payment service.
type PaymentClient struct {
	*baseClient
}

// NewPaymentClient creates a payment service client.
func NewPaymentClient(opts Options) *PaymentClient {
	return &PaymentClient{baseClient: newBaseClient("payment", opts)}
}

// Process charges a payment method against an order amount.
func (c *PaymentClient) Process(ctx context.Context, req *PaymentRequest) (*models.PaymentResult, error) {
	var result models.PaymentResult
	if err := c.postJSON(ctx, "/api/payments/process", nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
