package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"checkout-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: payload}
}

func TestHandleMessageDispatchesByType(t *testing.T) {
	eh := NewEventHandler()

	var placed *models.CheckoutPlacedEvent
	var completed *models.CheckoutCompletedEvent
	eh.OnCheckoutPlaced(func(_ context.Context, e *models.CheckoutPlacedEvent) error {
		placed = e
		return nil
	})
	eh.OnCheckoutCompleted(func(_ context.Context, e *models.CheckoutCompletedEvent) error {
		completed = e
		return nil
	})

	err := eh.HandleMessage(context.Background(), message(t, &models.CheckoutPlacedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-1", EventType: models.EventTypeCheckoutPlaced, Timestamp: time.Now()},
		AttemptID: "attempt-1",
		OrderID:   99,
		UserID:    7,
	}))
	require.NoError(t, err)
	require.NotNil(t, placed)
	assert.Equal(t, int64(99), placed.OrderID)
	assert.Nil(t, completed)

	err = eh.HandleMessage(context.Background(), message(t, &models.CheckoutCompletedEvent{
		BaseEvent:     models.BaseEvent{EventID: "evt-2", EventType: models.EventTypeCheckoutCompleted, Timestamp: time.Now()},
		AttemptID:     "attempt-1",
		OrderID:       99,
		UserID:        7,
		PaymentStatus: models.PaymentStatusCompleted,
	}))
	require.NoError(t, err)
	require.NotNil(t, completed)
	assert.Equal(t, models.PaymentStatusCompleted, completed.PaymentStatus)
}

func TestHandleMessageIgnoresUnknownTypes(t *testing.T) {
	eh := NewEventHandler()
	eh.OnCheckoutPlaced(func(_ context.Context, _ *models.CheckoutPlacedEvent) error {
		t.Fatal("handler should not run for unknown event types")
		return nil
	})

	err := eh.HandleMessage(context.Background(), message(t, &models.BaseEvent{
		EventID:   "evt-3",
		EventType: "checkout.unknown",
		Timestamp: time.Now(),
	}))
	assert.NoError(t, err)
}

func TestHandleMessageRejectsBadPayload(t *testing.T) {
	eh := NewEventHandler()
	err := eh.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)
}
