package clients

import (
	"context"
	"fmt"

	"checkout-service/internal/models"
)

// PlaceOrderRequest is the order service's placement payload. The phone number
// travels as an integer, matching the order service contract.
type PlaceOrderRequest struct {
	UserID     int64              `json:"userId"`
	TotalPrice float64            `json:"totalPrice"`
	Address    string             `json:"address"`
	Phone      int64              `json:"phoneno"`
	Status     string             `json:"status"`
	Items      []models.OrderLine `json:"items"`
}

// StatusUpdateRequest advances an order's status, carrying payment context
// when the transition was driven by a settled payment.
type StatusUpdateRequest struct {
	Status        string `json:"status"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
}

// OrderClient talks to the order service.
type OrderClient struct {
	*baseClient
}

// NewOrderClient creates an order service client.
func NewOrderClient(opts Options) *OrderClient {
	return &OrderClient{baseClient: newBaseClient("order", opts)}
}

// PlaceOrder submits a new order built from a cart snapshot.
func (c *OrderClient) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*models.Order, error) {
	var order models.Order
	if err := c.postJSON(ctx, "/api/orders/place", nil, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder fetches an order by id.
func (c *OrderClient) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	if err := c.getJSON(ctx, fmt.Sprintf("/api/orders/%d", orderID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders fetches all orders (admin view).
func (c *OrderClient) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.getJSON(ctx, "/api/orders/all", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListUserOrders fetches the orders of a single user.
func (c *OrderClient) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	if err := c.getJSON(ctx, fmt.Sprintf("/api/orders/user/%d", userID), nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus advances an order's status.
func (c *OrderClient) UpdateStatus(ctx context.Context, orderID int64, req *StatusUpdateRequest) error {
	return c.putJSON(ctx, fmt.Sprintf("/api/orders/%d/status", orderID), req, nil)
}

// UpdateOrder replaces an order record (admin edit).
func (c *OrderClient) UpdateOrder(ctx context.Context, orderID int64, order *models.Order) (*models.Order, error) {
	var updated models.Order
	if err := c.putJSON(ctx, fmt.Sprintf("/api/orders/%d", orderID), order, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteOrder removes an order record (admin only).
func (c *OrderClient) DeleteOrder(ctx context.Context, orderID int64) error {
	return c.deleteJSON(ctx, fmt.Sprintf("/api/orders/%d", orderID), nil)
}
