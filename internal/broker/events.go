package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"checkout-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing checkout lifecycle events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishCheckoutPlaced publishes CheckoutPlaced event
func (ep *EventPublisher) PublishCheckoutPlaced(ctx context.Context, event *models.CheckoutPlacedEvent) error {
	key := fmt.Sprintf("attempt-%s", event.AttemptID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishCheckoutCompleted publishes CheckoutCompleted event
func (ep *EventPublisher) PublishCheckoutCompleted(ctx context.Context, event *models.CheckoutCompletedEvent) error {
	key := fmt.Sprintf("attempt-%s", event.AttemptID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishCheckoutPaymentFailed publishes CheckoutPaymentFailed event
func (ep *EventPublisher) PublishCheckoutPaymentFailed(ctx context.Context, event *models.CheckoutPaymentFailedEvent) error {
	key := fmt.Sprintf("attempt-%s", event.AttemptID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishCheckoutCancelled publishes CheckoutCancelled event
func (ep *EventPublisher) PublishCheckoutCancelled(ctx context.Context, event *models.CheckoutCancelledEvent) error {
	key := fmt.Sprintf("attempt-%s", event.AttemptID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes checkout events to registered handlers
type EventHandler struct {
	onCheckoutPlaced    func(context.Context, *models.CheckoutPlacedEvent) error
	onCheckoutCompleted func(context.Context, *models.CheckoutCompletedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnCheckoutPlaced registers a handler for CheckoutPlaced events
func (eh *EventHandler) OnCheckoutPlaced(handler func(context.Context, *models.CheckoutPlacedEvent) error) {
	eh.onCheckoutPlaced = handler
}

// OnCheckoutCompleted registers a handler for CheckoutCompleted events
func (eh *EventHandler) OnCheckoutCompleted(handler func(context.Context, *models.CheckoutCompletedEvent) error) {
	eh.onCheckoutCompleted = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeCheckoutPlaced:
		if eh.onCheckoutPlaced != nil {
			var event models.CheckoutPlacedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CheckoutPlaced event: %w", err)
			}
			return eh.onCheckoutPlaced(ctx, &event)
		}

	case models.EventTypeCheckoutCompleted:
		if eh.onCheckoutCompleted != nil {
			var event models.CheckoutCompletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CheckoutCompleted event: %w", err)
			}
			return eh.onCheckoutCompleted(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
