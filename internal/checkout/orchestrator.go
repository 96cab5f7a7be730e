package checkout

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"checkout-service/internal/clients"
	"checkout-service/internal/models"
	"checkout-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Attempt states. An attempt moves forward only; PAYMENT_FAILED is
// terminal-but-visible: the attempt ends but the placed order persists
// server-side.
const (
	StateIdle           = "IDLE"
	StateCartLoaded     = "CART_LOADED"
	StateEnriched       = "ENRICHED"
	StateValidated      = "VALIDATED"
	StatePlaced         = "PLACED"
	StatePaymentPending = "PAYMENT_PENDING"
	StatePaymentSettled = "PAYMENT_SETTLED"
	StatePaymentFailed  = "PAYMENT_FAILED"
	StateFinalized      = "FINALIZED"
	StateCancelled      = "CANCELLED"
)

// PaymentMethodCashOnDelivery skips the payment processor entirely.
const PaymentMethodCashOnDelivery = "cash-on-delivery"

const placeholderName = "Product unavailable"

// Journal records checkout attempts and their state transitions.
type Journal interface {
	StartAttempt(ctx context.Context, attemptID string, userID int64) error
	RecordState(ctx context.Context, attemptID, state string) error
	RecordOrder(ctx context.Context, attemptID string, orderID int64, totalPrice float64) error
	RecordFailure(ctx context.Context, attemptID, state, reason string) error
}

// EventSink publishes checkout lifecycle events.
type EventSink interface {
	PublishCheckoutPlaced(ctx context.Context, event *models.CheckoutPlacedEvent) error
	PublishCheckoutCompleted(ctx context.Context, event *models.CheckoutCompletedEvent) error
	PublishCheckoutPaymentFailed(ctx context.Context, event *models.CheckoutPaymentFailedEvent) error
	PublishCheckoutCancelled(ctx context.Context, event *models.CheckoutCancelledEvent) error
}

// ReceiptStore caches the last receipt per user.
type ReceiptStore interface {
	Write(ctx context.Context, receipt *models.Receipt) error
	Get(ctx context.Context, userID int64) (*models.Receipt, error)
	Update(ctx context.Context, receipt *models.Receipt) error
}

// Input is one checkout submission.
type Input struct {
	UserID        int64
	Address       string
	Phone         string
	PaymentMethod string
	Currency      string
	Card          *clients.CardDetails
}

// Result is the outcome of a finished attempt.
type Result struct {
	AttemptID     string                `json:"attempt_id"`
	State         string                `json:"state"`
	Order         *models.Order         `json:"order"`
	Lines         []models.CartLine     `json:"lines"`
	Totals        models.Totals         `json:"totals"`
	Payment       *models.PaymentResult `json:"payment,omitempty"`
	PaymentStatus string                `json:"payment_status"`
	Receipt       *models.Receipt       `json:"receipt"`
}

// Orchestrator turns a user's server-held cart into a placed, optionally paid
// order with a cached receipt. The cart stays authoritative until placement
// succeeds; payment failure never reverses placement.
type Orchestrator struct {
	cart     *clients.CartClient
	catalog  *clients.CatalogClient
	orders   *clients.OrderClient
	payments *clients.PaymentClient
	receipts ReceiptStore
	journal  Journal
	events   EventSink
	logger   *zap.Logger

	enrichConcurrency int

	mu      sync.Mutex
	pending map[string]context.CancelFunc
}

// NewOrchestrator creates a checkout orchestrator.
func NewOrchestrator(
	cart *clients.CartClient,
	catalog *clients.CatalogClient,
	orders *clients.OrderClient,
	payments *clients.PaymentClient,
	receipts ReceiptStore,
	journal Journal,
	events EventSink,
	enrichConcurrency int,
) *Orchestrator {
	if enrichConcurrency <= 0 {
		enrichConcurrency = 8
	}
	return &Orchestrator{
		cart:              cart,
		catalog:           catalog,
		orders:            orders,
		payments:          payments,
		receipts:          receipts,
		journal:           journal,
		events:            events,
		logger:            util.GetLogger(),
		enrichConcurrency: enrichConcurrency,
		pending:           make(map[string]context.CancelFunc),
	}
}

// LoadCart fetches the user's current cart lines. Two calls without an
// intervening mutation return identical line sets.
func (o *Orchestrator) LoadCart(ctx context.Context, userID int64) ([]clients.CartItem, error) {
	ctx, span := util.StartSpan(ctx, "Orchestrator.LoadCart")
	defer span.End()

	if userID <= 0 {
		return nil, &CartUnavailableError{Reason: "unauthenticated session"}
	}

	items, err := o.cart.GetCart(ctx, userID)
	if err != nil {
		return nil, &CartUnavailableError{Reason: "cart service error", Err: err}
	}
	return items, nil
}

// EnrichLines resolves product attributes for each cart line with a bounded
// fan-out, joining before return. A failed lookup degrades that line to
// placeholder attributes with a zero price instead of aborting the batch.
func (o *Orchestrator) EnrichLines(ctx context.Context, items []clients.CartItem) []models.CartLine {
	ctx, span := util.StartSpan(ctx, "Orchestrator.EnrichLines")
	defer span.End()

	start := time.Now()
	defer func() {
		util.EnrichmentLatency.Observe(time.Since(start).Seconds())
	}()

	lines := make([]models.CartLine, len(items))
	sem := make(chan struct{}, o.enrichConcurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item clients.CartItem) {
			defer wg.Done()
			defer func() { <-sem }()

			product, err := o.catalog.GetProduct(ctx, item.ProductID)
			if err != nil {
				o.logger.Warn("Catalog lookup failed, degrading line",
					zap.Int64("product_id", item.ProductID),
					zap.Error(err))
				util.EnrichmentDegradedTotal.Inc()
				lines[i] = models.CartLine{
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
					Name:      placeholderName,
					UnitPrice: decimal.Zero,
					Degraded:  true,
				}
				return
			}

			lines[i] = models.CartLine{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Name:      product.Name,
				Brand:     product.Brand,
				ImageURL:  product.ImageURL,
				UnitPrice: decimal.NewFromFloat(product.Price),
			}
		}(i, item)
	}

	wg.Wait()
	return lines
}

// Checkout runs one full attempt: load, enrich, validate, place, pay,
// finalize. Placement failure blocks payment and leaves the cart untouched;
// payment failure never reverses placement.
func (o *Orchestrator) Checkout(ctx context.Context, input *Input) (*Result, error) {
	ctx, span := util.StartSpan(ctx, "Orchestrator.Checkout")
	defer span.End()

	util.CheckoutAttemptsTotal.Inc()

	attemptID := uuid.New().String()
	ctx, cancel := context.WithCancel(ctx)
	o.register(attemptID, cancel)
	defer o.unregister(attemptID)

	if err := o.journal.StartAttempt(ctx, attemptID, input.UserID); err != nil {
		o.logger.Error("Failed to journal attempt start", zap.Error(err))
	}

	items, err := o.LoadCart(ctx, input.UserID)
	if err != nil {
		o.fail(ctx, attemptID, StateIdle, "cart_unavailable")
		util.CheckoutFailedTotal.WithLabelValues("cart_unavailable").Inc()
		return nil, err
	}
	if len(items) == 0 {
		o.fail(ctx, attemptID, StateCartLoaded, "empty_cart")
		util.CheckoutFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, ErrEmptyCart
	}
	o.transition(ctx, attemptID, StateCartLoaded)

	lines := o.EnrichLines(ctx, items)
	o.transition(ctx, attemptID, StateEnriched)

	if err := ValidateInput(input.Address, input.Phone); err != nil {
		o.fail(ctx, attemptID, StateEnriched, "validation")
		util.CheckoutFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}
	o.transition(ctx, attemptID, StateValidated)

	totals := ComputeTotals(lines)

	order, err := o.placeOrder(ctx, input, lines, totals)
	if err != nil {
		o.fail(ctx, attemptID, StateValidated, "order_placement")
		util.CheckoutFailedTotal.WithLabelValues("order_placement").Inc()
		return nil, &OrderPlacementError{Err: err}
	}

	if err := o.journal.RecordOrder(ctx, attemptID, order.ID, totals.Total.InexactFloat64()); err != nil {
		o.logger.Error("Failed to journal order", zap.Error(err))
	}
	o.transition(ctx, attemptID, StatePlaced)
	util.OrdersPlacedTotal.Inc()
	o.logger.Info("Order placed",
		zap.String("attempt_id", attemptID),
		zap.Int64("order_id", order.ID),
		zap.String("total", totals.Total.StringFixed(2)))

	o.publishPlaced(ctx, attemptID, input.UserID, order.ID, totals, len(lines))

	state := StatePlaced
	paymentStatus := models.PaymentStatusPending
	var payment *models.PaymentResult

	if input.PaymentMethod != PaymentMethodCashOnDelivery {
		o.transition(ctx, attemptID, StatePaymentPending)
		util.PaymentAttemptsTotal.Inc()

		payment, err = o.processPayment(ctx, input, order.ID, totals)
		switch {
		case err == nil:
			paymentStatus = models.PaymentStatusCompleted
			state = StatePaymentSettled
			o.transition(ctx, attemptID, StatePaymentSettled)
			util.PaymentSuccessTotal.Inc()

		case errors.Is(err, context.Canceled):
			state = StateCancelled
			util.CheckoutCancelledTotal.Inc()
			o.fail(context.WithoutCancel(ctx), attemptID, StateCancelled, "user_cancelled")
			o.publishCancelled(context.WithoutCancel(ctx), attemptID, input.UserID, StatePaymentPending)
			o.logger.Warn("Checkout cancelled during payment; order remains placed",
				zap.String("attempt_id", attemptID),
				zap.Int64("order_id", order.ID))

		default:
			state = StatePaymentFailed
			o.transition(ctx, attemptID, StatePaymentFailed)
			util.PaymentFailedTotal.Inc()
			o.logger.Warn("Payment failed; order remains placed",
				zap.String("attempt_id", attemptID),
				zap.Int64("order_id", order.ID),
				zap.Error(err))
			o.publishPaymentFailed(ctx, attemptID, input.UserID, order.ID, err.Error())
		}
	}

	// Finalization never rolls anything back: the placed order is the source
	// of truth even when payment did not settle.
	finalizeCtx := ctx
	if state == StateCancelled {
		finalizeCtx = context.WithoutCancel(ctx)
	}
	receipt := o.finalizeOrder(finalizeCtx, attemptID, input, order, lines, totals, payment, paymentStatus)
	if state == StatePlaced || state == StatePaymentSettled {
		state = StateFinalized
	}

	result := &Result{
		AttemptID:     attemptID,
		State:         state,
		Order:         order,
		Lines:         lines,
		Totals:        totals,
		Payment:       payment,
		PaymentStatus: paymentStatus,
		Receipt:       receipt,
	}

	if state == StatePaymentFailed {
		// Surfaced, not retried: callers show the order id and let the user
		// retry payment separately.
		return result, &PaymentError{OrderID: order.ID, Err: err}
	}
	return result, nil
}

// Cancel aborts an in-flight attempt, used while payment is pending.
func (o *Orchestrator) Cancel(attemptID string) bool {
	o.mu.Lock()
	cancel, ok := o.pending[attemptID]
	o.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Confirmation returns the receipt for the confirmation view. The cached
// receipt is reconciled against the authoritative order record; the cache is
// the fallback when the order service is unreachable.
func (o *Orchestrator) Confirmation(ctx context.Context, userID int64) (*models.Receipt, error) {
	receipt, err := o.receipts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	order, err := o.orders.GetOrder(ctx, receipt.OrderID)
	if err != nil {
		o.logger.Warn("Order re-fetch failed, serving cached receipt",
			zap.Int64("order_id", receipt.OrderID),
			zap.Error(err))
		return receipt, nil
	}

	if order.Status != "" && order.Status != receipt.Status {
		receipt.Status = order.Status
		now := time.Now()
		receipt.ReconciledAt = &now
		if err := o.receipts.Update(ctx, receipt); err != nil {
			o.logger.Warn("Failed to update reconciled receipt", zap.Error(err))
		}
	}
	return receipt, nil
}

func (o *Orchestrator) placeOrder(ctx context.Context, input *Input, lines []models.CartLine, totals models.Totals) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "Orchestrator.placeOrder")
	defer span.End()

	phone, _ := strconv.ParseInt(input.Phone, 10, 64)

	orderLines := make([]models.OrderLine, 0, len(lines))
	for _, line := range lines {
		orderLines = append(orderLines, models.OrderLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice.InexactFloat64(),
		})
	}

	return o.orders.PlaceOrder(ctx, &clients.PlaceOrderRequest{
		UserID:     input.UserID,
		TotalPrice: totals.Total.InexactFloat64(),
		Address:    input.Address,
		Phone:      phone,
		Status:     models.OrderStatusNew,
		Items:      orderLines,
	})
}

func (o *Orchestrator) processPayment(ctx context.Context, input *Input, orderID int64, totals models.Totals) (*models.PaymentResult, error) {
	ctx, span := util.StartSpan(ctx, "Orchestrator.processPayment")
	defer span.End()

	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	return o.payments.Process(ctx, &clients.PaymentRequest{
		OrderID:        orderID,
		Amount:         totals.Total.InexactFloat64(),
		Currency:       currency,
		PaymentMethod:  input.PaymentMethod,
		PaymentDetails: input.Card,
		UserID:         input.UserID,
		CustomerInfo: clients.CustomerInfo{
			Address:     input.Address,
			PhoneNumber: input.Phone,
		},
	})
}

// finalizeOrder advances the order to PAID when payment settled (best-effort),
// clears the cart exactly once, and writes the receipt. Failures here are
// logged, never rolled back.
func (o *Orchestrator) finalizeOrder(
	ctx context.Context,
	attemptID string,
	input *Input,
	order *models.Order,
	lines []models.CartLine,
	totals models.Totals,
	payment *models.PaymentResult,
	paymentStatus string,
) *models.Receipt {
	ctx, span := util.StartSpan(ctx, "Orchestrator.finalizeOrder")
	defer span.End()

	status := models.OrderStatusNew
	if order.Status != "" {
		status = order.Status
	}

	txID := ""
	if payment != nil {
		txID = payment.TransactionID
	}

	if paymentStatus == models.PaymentStatusCompleted {
		if err := o.orders.UpdateStatus(ctx, order.ID, &clients.StatusUpdateRequest{
			Status:        models.OrderStatusPaid,
			PaymentMethod: input.PaymentMethod,
			TransactionID: txID,
		}); err != nil {
			o.logger.Error("Failed to mark order PAID",
				zap.Int64("order_id", order.ID),
				zap.Error(err))
		} else {
			status = models.OrderStatusPaid
		}
	}

	if err := o.cart.Clear(ctx, input.UserID); err != nil {
		o.logger.Error("Failed to clear cart after placement",
			zap.Int64("user_id", input.UserID),
			zap.Error(err))
	}

	receiptItems := make([]models.ReceiptItem, 0, len(lines))
	for _, line := range lines {
		receiptItems = append(receiptItems, models.ReceiptItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Brand:     line.Brand,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice.InexactFloat64(),
			Total:     line.Subtotal().InexactFloat64(),
			ImageURL:  line.ImageURL,
		})
	}

	receipt := &models.Receipt{
		SchemaVersion: models.ReceiptSchemaVersion,
		OrderID:       order.ID,
		UserID:        input.UserID,
		Status:        status,
		Subtotal:      totals.Subtotal.InexactFloat64(),
		Tax:           totals.Tax.InexactFloat64(),
		Shipping:      totals.Shipping.InexactFloat64(),
		TotalPrice:    totals.Total.InexactFloat64(),
		Address:       input.Address,
		Phone:         input.Phone,
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: paymentStatus,
		TransactionID: txID,
		Items:         receiptItems,
		OrderDate:     time.Now(),
	}

	if err := o.receipts.Write(ctx, receipt); err != nil {
		o.logger.Error("Failed to write receipt",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	} else {
		util.ReceiptsWrittenTotal.Inc()
	}

	o.publishCompleted(ctx, attemptID, input.UserID, order.ID, paymentStatus, txID)
	o.transition(ctx, attemptID, StateFinalized)
	return receipt
}

func (o *Orchestrator) register(attemptID string, cancel context.CancelFunc) {
	o.mu.Lock()
	o.pending[attemptID] = cancel
	o.mu.Unlock()
}

func (o *Orchestrator) unregister(attemptID string) {
	o.mu.Lock()
	delete(o.pending, attemptID)
	o.mu.Unlock()
}

func (o *Orchestrator) transition(ctx context.Context, attemptID, state string) {
	if err := o.journal.RecordState(ctx, attemptID, state); err != nil {
		o.logger.Error("Failed to journal state",
			zap.String("attempt_id", attemptID),
			zap.String("state", state),
			zap.Error(err))
	}
}

func (o *Orchestrator) fail(ctx context.Context, attemptID, state, reason string) {
	if err := o.journal.RecordFailure(ctx, attemptID, state, reason); err != nil {
		o.logger.Error("Failed to journal failure",
			zap.String("attempt_id", attemptID),
			zap.Error(err))
	}
}

func (o *Orchestrator) publishPlaced(ctx context.Context, attemptID string, userID, orderID int64, totals models.Totals, itemCount int) {
	event := &models.CheckoutPlacedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeCheckoutPlaced),
		AttemptID:  attemptID,
		OrderID:    orderID,
		UserID:     userID,
		TotalPrice: totals.Total.InexactFloat64(),
		ItemCount:  itemCount,
	}
	if err := o.events.PublishCheckoutPlaced(ctx, event); err != nil {
		o.logger.Error("Failed to publish CheckoutPlaced event", zap.Error(err))
	}
}

func (o *Orchestrator) publishCompleted(ctx context.Context, attemptID string, userID, orderID int64, paymentStatus, txID string) {
	event := &models.CheckoutCompletedEvent{
		BaseEvent:     newBaseEvent(models.EventTypeCheckoutCompleted),
		AttemptID:     attemptID,
		OrderID:       orderID,
		UserID:        userID,
		PaymentStatus: paymentStatus,
		TransactionID: txID,
	}
	if err := o.events.PublishCheckoutCompleted(ctx, event); err != nil {
		o.logger.Error("Failed to publish CheckoutCompleted event", zap.Error(err))
	}
}

func (o *Orchestrator) publishPaymentFailed(ctx context.Context, attemptID string, userID, orderID int64, reason string) {
	event := &models.CheckoutPaymentFailedEvent{
		BaseEvent: newBaseEvent(models.EventTypeCheckoutPaymentFailed),
		AttemptID: attemptID,
		OrderID:   orderID,
		UserID:    userID,
		Reason:    reason,
	}
	if err := o.events.PublishCheckoutPaymentFailed(ctx, event); err != nil {
		o.logger.Error("Failed to publish CheckoutPaymentFailed event", zap.Error(err))
	}
}

func (o *Orchestrator) publishCancelled(ctx context.Context, attemptID string, userID int64, state string) {
	event := &models.CheckoutCancelledEvent{
		BaseEvent: newBaseEvent(models.EventTypeCheckoutCancelled),
		AttemptID: attemptID,
		UserID:    userID,
		State:     state,
	}
	if err := o.events.PublishCheckoutCancelled(ctx, event); err != nil {
		o.logger.Error("Failed to publish CheckoutCancelled event", zap.Error(err))
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
