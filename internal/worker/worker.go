package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"checkout-service/internal/broker"
	"checkout-service/internal/checkout"
	"checkout-service/internal/clients"
	"checkout-service/internal/models"
	"checkout-service/internal/util"

	"go.uber.org/zap"
)

// ReceiptWorker consumes checkout events and reconciles the cached receipt
// against the authoritative order record. The receipt is a cache; the order
// service owns the truth.
type ReceiptWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	reconciler   *Reconciler
}

// NewReceiptWorker creates a receipt reconciliation worker
func NewReceiptWorker(consumer *broker.Consumer, reconciler *Reconciler) *ReceiptWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnCheckoutPlaced(reconciler.HandleCheckoutPlaced)
	eventHandler.OnCheckoutCompleted(reconciler.HandleCheckoutCompleted)

	return &ReceiptWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		reconciler:   reconciler,
	}
}

// Start starts the worker
func (w *ReceiptWorker) Start(ctx context.Context) error {
	log.Println("Starting receipt worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ReceiptWorker) Stop() error {
	log.Println("Stopping receipt worker...")
	return w.consumer.Close()
}

// ProcessedLog tracks which events have already been handled, so redelivered
// messages reconcile at most once.
type ProcessedLog interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// Reconciler refreshes cached receipts from the order service.
type Reconciler struct {
	journal  ProcessedLog
	orders   *clients.OrderClient
	receipts checkout.ReceiptStore
	logger   *zap.Logger
}

// NewReconciler creates a receipt reconciler
func NewReconciler(journal ProcessedLog, orders *clients.OrderClient, receipts checkout.ReceiptStore) *Reconciler {
	return &Reconciler{
		journal:  journal,
		orders:   orders,
		receipts: receipts,
		logger:   util.GetLogger(),
	}
}

// HandleCheckoutPlaced reconciles the receipt right after placement.
func (r *Reconciler) HandleCheckoutPlaced(ctx context.Context, event *models.CheckoutPlacedEvent) error {
	return r.reconcile(ctx, event.EventID, event.EventType, event.UserID, event.OrderID)
}

// HandleCheckoutCompleted reconciles the receipt after finalization.
func (r *Reconciler) HandleCheckoutCompleted(ctx context.Context, event *models.CheckoutCompletedEvent) error {
	return r.reconcile(ctx, event.EventID, event.EventType, event.UserID, event.OrderID)
}

func (r *Reconciler) reconcile(ctx context.Context, eventID, eventType string, userID, orderID int64) error {
	processed, err := r.journal.IsEventProcessed(ctx, eventID)
	if err != nil {
		return err
	}
	if processed {
		r.logger.Info("Event already processed", zap.String("event_id", eventID))
		return nil
	}

	receipt, err := r.receipts.Get(ctx, userID)
	if errors.Is(err, checkout.ErrNoReceipt) {
		r.logger.Info("No receipt to reconcile", zap.Int64("user_id", userID))
		return r.journal.MarkEventProcessed(ctx, eventID, eventType)
	}
	if err != nil {
		return err
	}
	if receipt.OrderID != orderID {
		// A newer checkout replaced the receipt; nothing to do for this order.
		return r.journal.MarkEventProcessed(ctx, eventID, eventType)
	}

	order, err := r.orders.GetOrder(ctx, orderID)
	if err != nil {
		r.logger.Warn("Order re-fetch failed during reconciliation",
			zap.Int64("order_id", orderID),
			zap.Error(err))
		return err
	}

	if order.Status != "" && order.Status != receipt.Status {
		receipt.Status = order.Status
		now := time.Now()
		receipt.ReconciledAt = &now
		if err := r.receipts.Update(ctx, receipt); err != nil {
			return err
		}
		util.ReceiptsReconciledTotal.Inc()
		r.logger.Info("Receipt reconciled",
			zap.Int64("order_id", orderID),
			zap.String("status", order.Status))
	}

	if err := r.journal.MarkEventProcessed(ctx, eventID, eventType); err != nil {
		r.logger.Error("Failed to mark event processed", zap.Error(err))
	}
	return nil
}
