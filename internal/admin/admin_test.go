package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"checkout-service/internal/clients"
	"checkout-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testOptions(baseURL string) clients.Options {
	return clients.Options{
		BaseURL:        baseURL,
		RequestTimeout: 2 * time.Second,
		MaxGetRetries:  1,
		Logger:         zap.NewNop(),
	}
}

func newTestService(t *testing.T, users, catalog, orders http.HandlerFunc) *Service {
	t.Helper()

	noop := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	if users == nil {
		users = noop
	}
	if catalog == nil {
		catalog = noop
	}
	if orders == nil {
		orders = noop
	}

	userSrv := httptest.NewServer(users)
	catalogSrv := httptest.NewServer(catalog)
	orderSrv := httptest.NewServer(orders)
	t.Cleanup(func() {
		userSrv.Close()
		catalogSrv.Close()
		orderSrv.Close()
	})

	return NewService(
		clients.NewUserClient(testOptions(userSrv.URL)),
		clients.NewCatalogClient(testOptions(catalogSrv.URL)),
		clients.NewOrderClient(testOptions(orderSrv.URL)),
	)
}

func TestListUsersServesSnapshot(t *testing.T) {
	var listHits int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&listHits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"email":"a@example.com"},{"id":2,"email":"b@example.com"}]`))
	}, nil, nil)

	first, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// The second listing is a snapshot read, not another fetch.
	assert.Equal(t, int32(1), atomic.LoadInt32(&listHits))
}

func TestCreateUserPatchesSnapshot(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":1,"email":"a@example.com"}]`))
		case r.Method == http.MethodPost:
			_, _ = w.Write([]byte(`{"id":2,"email":"new@example.com"}`))
		}
	}, nil, nil)

	_, err := svc.ListUsers(context.Background())
	require.NoError(t, err)

	created, err := svc.CreateUser(context.Background(), &clients.User{Email: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created.ID)

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "new@example.com", users[1].Email)
}

func TestCreateUserRequiresEmail(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)

	_, err := svc.CreateUser(context.Background(), &clients.User{Email: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteUserPatchesSnapshot(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":1,"email":"a@example.com"},{"id":2,"email":"b@example.com"}]`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}, nil, nil)

	_, err := svc.ListUsers(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(context.Background(), 1))

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(2), users[0].ID)
}

func TestMutationErrorDropsSnapshot(t *testing.T) {
	var listHits int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			atomic.AddInt32(&listHits, 1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":1,"email":"a@example.com"}]`))
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}, nil, nil)

	_, err := svc.ListUsers(context.Background())
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), &clients.User{Email: "new@example.com"})
	require.Error(t, err)

	// The failed mutation invalidated the snapshot; the next list re-fetches.
	_, err = svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&listHits))
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)

	_, err := svc.CreateProduct(context.Background(), &clients.Product{Name: "", Price: 10})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateProduct(context.Background(), &clients.Product{Name: "Keyboard", Price: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateOrderStatus(t *testing.T) {
	var statusUpdates int32
	svc := newTestService(t, nil, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(models.Order{ID: 99, Status: models.OrderStatusPaid})
			return
		}
		atomic.AddInt32(&statusUpdates, 1)
		w.WriteHeader(http.StatusOK)
	})

	order, err := svc.UpdateOrderStatus(context.Background(), 99, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, order.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&statusUpdates))
}

func TestUpdateOrderStatusRejectsInvalidTransition(t *testing.T) {
	var statusUpdates int32
	svc := newTestService(t, nil, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(models.Order{ID: 99, Status: models.OrderStatusNew})
			return
		}
		atomic.AddInt32(&statusUpdates, 1)
		w.WriteHeader(http.StatusOK)
	})

	_, err := svc.UpdateOrderStatus(context.Background(), 99, models.OrderStatusDelivered)

	var terr *InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.OrderStatusNew, terr.From)
	assert.Equal(t, models.OrderStatusDelivered, terr.To)

	// The order service never sees the rejected update.
	assert.Zero(t, atomic.LoadInt32(&statusUpdates))
}
