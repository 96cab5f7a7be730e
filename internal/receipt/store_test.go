package receipt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"checkout-service/internal/checkout"
	"checkout-service/internal/models"
	"checkout-service/internal/redisclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBackend struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (b *memoryBackend) SetJSON(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	b.data[key] = payload
	b.ttls[key] = ttl
	return nil
}

func (b *memoryBackend) GetJSON(_ context.Context, key string, out interface{}) error {
	payload, ok := b.data[key]
	if !ok {
		return redisclient.ErrNotFound
	}
	return json.Unmarshal(payload, out)
}

func (b *memoryBackend) TTL(_ context.Context, key string) (time.Duration, error) {
	ttl, ok := b.ttls[key]
	if !ok {
		return -2, nil
	}
	return ttl, nil
}

func TestWriteAndGet(t *testing.T) {
	backend := newMemoryBackend()
	store := NewStore(backend, time.Hour)

	err := store.Write(context.Background(), &models.Receipt{
		OrderID:       99,
		UserID:        7,
		Status:        models.OrderStatusNew,
		TotalPrice:    31.59,
		PaymentStatus: models.PaymentStatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, backend.ttls["receipt:7"])

	receipt, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(99), receipt.OrderID)
	assert.Equal(t, models.ReceiptSchemaVersion, receipt.SchemaVersion)
}

func TestGetMissing(t *testing.T) {
	store := NewStore(newMemoryBackend(), time.Hour)

	_, err := store.Get(context.Background(), 7)
	assert.ErrorIs(t, err, checkout.ErrNoReceipt)
}

func TestGetStaleSchemaVersion(t *testing.T) {
	backend := newMemoryBackend()
	store := NewStore(backend, time.Hour)

	// A receipt written under an older layout reads back as absent.
	require.NoError(t, backend.SetJSON(context.Background(), "receipt:7", map[string]interface{}{
		"schema_version": models.ReceiptSchemaVersion - 1,
		"order_id":       99,
		"user_id":        7,
	}, time.Hour))

	_, err := store.Get(context.Background(), 7)
	assert.ErrorIs(t, err, checkout.ErrNoReceipt)
}

func TestUpdatePreservesRemainingTTL(t *testing.T) {
	backend := newMemoryBackend()
	store := NewStore(backend, 72*time.Hour)

	receipt := &models.Receipt{OrderID: 99, UserID: 7, Status: models.OrderStatusNew}
	require.NoError(t, store.Write(context.Background(), receipt))

	// Simulate time passing: the backend now reports a shorter remaining TTL.
	backend.ttls["receipt:7"] = 10 * time.Minute

	receipt.Status = models.OrderStatusPaid
	require.NoError(t, store.Update(context.Background(), receipt))

	assert.Equal(t, 10*time.Minute, backend.ttls["receipt:7"])

	updated, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, updated.Status)
}
