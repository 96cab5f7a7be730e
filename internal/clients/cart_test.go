package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testOptions(baseURL string) Options {
	return Options{
		BaseURL:        baseURL,
		RequestTimeout: 2 * time.Second,
		MaxGetRetries:  1,
		Logger:         zap.NewNop(),
	}
}

func TestGetCartWrappedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cart/7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"productId":1,"quantity":2},{"productId":3,"quantity":1}]}`))
	}))
	defer srv.Close()

	client := NewCartClient(testOptions(srv.URL))
	items, err := client.GetCart(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []CartItem{{ProductID: 1, Quantity: 2}, {ProductID: 3, Quantity: 1}}, items)
}

func TestGetCartBareArrayPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"productId":5,"quantity":4}]`))
	}))
	defer srv.Close()

	client := NewCartClient(testOptions(srv.URL))
	items, err := client.GetCart(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []CartItem{{ProductID: 5, Quantity: 4}}, items)
}

func TestGetNotRetriedOnClientError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "no such cart", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewCartClient(testOptions(srv.URL))
	_, err := client.GetCart(context.Background(), 7)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "cart", se.Service)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestAddItemSendsQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/cart/7/add", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("productId"))
		assert.Equal(t, "2", r.URL.Query().Get("quantity"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewCartClient(testOptions(srv.URL))
	require.NoError(t, client.AddItem(context.Background(), 7, 3, 2))
}
