package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// CartItem is a raw cart line as held by the cart service, before enrichment.
type CartItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CartClient talks to the cart service.
type CartClient struct {
	*baseClient
}

// NewCartClient creates a cart service client.
func NewCartClient(opts Options) *CartClient {
	return &CartClient{baseClient: newBaseClient("cart", opts)}
}

// GetCart fetches the current cart lines for a user. The cart service answers
// either {"items": [...]} or a bare array; both shapes are accepted.
func (c *CartClient) GetCart(ctx context.Context, userID int64) ([]CartItem, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, fmt.Sprintf("/api/cart/%d", userID), nil, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		Items []CartItem `json:"items"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Items != nil {
		return wrapped.Items, nil
	}

	var items []CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("cart service returned unexpected payload: %w", err)
	}
	return items, nil
}

// AddItem adds a product to the cart.
func (c *CartClient) AddItem(ctx context.Context, userID, productID int64, quantity int) error {
	query := url.Values{}
	query.Set("productId", strconv.FormatInt(productID, 10))
	query.Set("quantity", strconv.Itoa(quantity))
	return c.postJSON(ctx, fmt.Sprintf("/api/cart/%d/add", userID), query, nil, nil)
}

// RemoveItem removes a product from the cart.
func (c *CartClient) RemoveItem(ctx context.Context, userID, productID int64) error {
	query := url.Values{}
	query.Set("productId", strconv.FormatInt(productID, 10))
	return c.deleteJSON(ctx, fmt.Sprintf("/api/cart/%d/remove", userID), query)
}

// Clear empties the user's cart. Called only after successful order placement.
func (c *CartClient) Clear(ctx context.Context, userID int64) error {
	return c.deleteJSON(ctx, fmt.Sprintf("/api/cart/%d/clear", userID), nil)
}
