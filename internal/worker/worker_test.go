package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"checkout-service/internal/checkout"
	"checkout-service/internal/clients"
	"checkout-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLog struct {
	processed map[string]string
}

func newFakeLog() *fakeLog {
	return &fakeLog{processed: make(map[string]string)}
}

func (l *fakeLog) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	_, ok := l.processed[eventID]
	return ok, nil
}

func (l *fakeLog) MarkEventProcessed(_ context.Context, eventID, eventType string) error {
	l.processed[eventID] = eventType
	return nil
}

type fakeReceipts struct {
	byUser  map[int64]*models.Receipt
	updates int
}

func newFakeReceipts() *fakeReceipts {
	return &fakeReceipts{byUser: make(map[int64]*models.Receipt)}
}

func (r *fakeReceipts) Write(_ context.Context, receipt *models.Receipt) error {
	r.byUser[receipt.UserID] = receipt
	return nil
}

func (r *fakeReceipts) Get(_ context.Context, userID int64) (*models.Receipt, error) {
	receipt, ok := r.byUser[userID]
	if !ok {
		return nil, checkout.ErrNoReceipt
	}
	copied := *receipt
	return &copied, nil
}

func (r *fakeReceipts) Update(_ context.Context, receipt *models.Receipt) error {
	r.byUser[receipt.UserID] = receipt
	r.updates++
	return nil
}

func newTestReconciler(t *testing.T, orderStatus string, orderHits *int32) (*Reconciler, *fakeLog, *fakeReceipts) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if orderHits != nil {
			atomic.AddInt32(orderHits, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.Order{ID: 99, UserID: 7, Status: orderStatus})
	}))
	t.Cleanup(srv.Close)

	log := newFakeLog()
	receipts := newFakeReceipts()
	orders := clients.NewOrderClient(clients.Options{
		BaseURL:        srv.URL,
		RequestTimeout: 2 * time.Second,
		MaxGetRetries:  1,
		Logger:         zap.NewNop(),
	})
	return NewReconciler(log, orders, receipts), log, receipts
}

func placedEvent(eventID string) *models.CheckoutPlacedEvent {
	return &models.CheckoutPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   eventID,
			EventType: models.EventTypeCheckoutPlaced,
			Timestamp: time.Now(),
		},
		AttemptID: "attempt-1",
		OrderID:   99,
		UserID:    7,
	}
}

func TestReconcileUpdatesStaleReceipt(t *testing.T) {
	r, log, receipts := newTestReconciler(t, models.OrderStatusPaid, nil)

	require.NoError(t, receipts.Write(context.Background(), &models.Receipt{
		SchemaVersion: models.ReceiptSchemaVersion,
		OrderID:       99,
		UserID:        7,
		Status:        models.OrderStatusNew,
	}))

	require.NoError(t, r.HandleCheckoutPlaced(context.Background(), placedEvent("evt-1")))

	receipt := receipts.byUser[7]
	assert.Equal(t, models.OrderStatusPaid, receipt.Status)
	assert.NotNil(t, receipt.ReconciledAt)
	assert.Equal(t, 1, receipts.updates)
	assert.Contains(t, log.processed, "evt-1")
}

func TestReconcileIsIdempotent(t *testing.T) {
	var orderHits int32
	r, log, receipts := newTestReconciler(t, models.OrderStatusPaid, &orderHits)

	require.NoError(t, receipts.Write(context.Background(), &models.Receipt{
		SchemaVersion: models.ReceiptSchemaVersion,
		OrderID:       99,
		UserID:        7,
		Status:        models.OrderStatusNew,
	}))

	require.NoError(t, log.MarkEventProcessed(context.Background(), "evt-1", models.EventTypeCheckoutPlaced))
	require.NoError(t, r.HandleCheckoutPlaced(context.Background(), placedEvent("evt-1")))

	// Redelivery of a processed event never reaches the order service.
	assert.Zero(t, atomic.LoadInt32(&orderHits))
	assert.Zero(t, receipts.updates)
}

func TestReconcileWithoutReceipt(t *testing.T) {
	var orderHits int32
	r, log, _ := newTestReconciler(t, models.OrderStatusPaid, &orderHits)

	require.NoError(t, r.HandleCheckoutPlaced(context.Background(), placedEvent("evt-1")))

	assert.Zero(t, atomic.LoadInt32(&orderHits))
	assert.Contains(t, log.processed, "evt-1")
}

func TestReconcileSkipsReplacedReceipt(t *testing.T) {
	r, log, receipts := newTestReconciler(t, models.OrderStatusPaid, nil)

	// A newer checkout has replaced the receipt this event refers to.
	require.NoError(t, receipts.Write(context.Background(), &models.Receipt{
		SchemaVersion: models.ReceiptSchemaVersion,
		OrderID:       120,
		UserID:        7,
		Status:        models.OrderStatusNew,
	}))

	require.NoError(t, r.HandleCheckoutPlaced(context.Background(), placedEvent("evt-1")))

	assert.Equal(t, int64(120), receipts.byUser[7].OrderID)
	assert.Equal(t, models.OrderStatusNew, receipts.byUser[7].Status)
	assert.Zero(t, receipts.updates)
	assert.Contains(t, log.processed, "evt-1")
}

func TestReconcileMatchingStatusMarksProcessedOnly(t *testing.T) {
	r, log, receipts := newTestReconciler(t, models.OrderStatusPaid, nil)

	require.NoError(t, receipts.Write(context.Background(), &models.Receipt{
		SchemaVersion: models.ReceiptSchemaVersion,
		OrderID:       99,
		UserID:        7,
		Status:        models.OrderStatusPaid,
	}))

	require.NoError(t, r.HandleCheckoutCompleted(context.Background(), &models.CheckoutCompletedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-2", EventType: models.EventTypeCheckoutCompleted, Timestamp: time.Now()},
		AttemptID: "attempt-1",
		OrderID:   99,
		UserID:    7,
	}))

	assert.Zero(t, receipts.updates)
	assert.Nil(t, receipts.byUser[7].ReconciledAt)
	assert.Contains(t, log.processed, "evt-2")
}
