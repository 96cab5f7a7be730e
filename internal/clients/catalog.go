package clients

import (
	"context"
	"fmt"
)

// Product is the catalog service's view of a product.
type Product struct {
	ID          int64   `json:"id"`
	SKU         string  `json:"sku,omitempty"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// CatalogClient talks to the product service.
type CatalogClient struct {
	*baseClient
}

// NewCatalogClient creates a product service client.
func NewCatalogClient(opts Options) *CatalogClient {
	return &CatalogClient{baseClient: newBaseClient("product", opts)}
}

// GetProduct resolves a product id to its display attributes.
func (c *CatalogClient) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	var product Product
	if err := c.getJSON(ctx, fmt.Sprintf("/api/products/%d", productID), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts fetches the full catalog.
func (c *CatalogClient) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.getJSON(ctx, "/api/products/all", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct adds a product to the catalog.
func (c *CatalogClient) CreateProduct(ctx context.Context, product *Product) (*Product, error) {
	var created Product
	if err := c.postJSON(ctx, "/api/products/add", nil, product, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProduct replaces a product record.
func (c *CatalogClient) UpdateProduct(ctx context.Context, productID int64, product *Product) (*Product, error) {
	var updated Product
	if err := c.putJSON(ctx, fmt.Sprintf("/api/products/%d", productID), product, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProduct removes a product from the catalog.
func (c *CatalogClient) DeleteProduct(ctx context.Context, productID int64) error {
	return c.deleteJSON(ctx, fmt.Sprintf("/api/products/%d", productID), nil)
}
