package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"quickbite-api/apperr"
	"quickbite-api/events"
	"quickbite-api/metrics"
	"quickbite-api/models"
	"quickbite-api/payment"
	"quickbite-api/repository"
	"quickbite-api/statemachine"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultCancelReason = "Order cancelled by customer"

type OrderConfig struct {
	KeySecret     string
	WebhookSecret string
	Currency      string
	// StrictTransitions limits admin status updates to the fulfilment graph.
	// Off by default, any known status can then follow any other.
	StrictTransitions bool
}

// OrderService turns carts into orders, talks to the payment gateway and
// drives the order status lifecycle
type OrderService struct {
	store     repository.Store
	gateway   payment.Gateway
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	cfg       OrderConfig
	now       func() time.Time
}

func NewOrderService(store repository.Store, gateway payment.Gateway, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger, cfg OrderConfig) *OrderService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &OrderService{
		store:     store,
		gateway:   gateway,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

type CreateOrderInput struct {
	DeliveryDetails models.DeliveryDetails `json:"deliveryDetails"`
	Notes           string                 `json:"notes"`
}

type VerifyPaymentInput struct {
	GatewayOrderID string `json:"razorpayOrderId"`
	PaymentID      string `json:"razorpayPaymentId"`
	Signature      string `json:"razorpaySignature"`
}

// newOrderID builds ORD-<last 10 digits of unix millis>-<6 hex chars>
func newOrderID(now time.Time) string {
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if len(millis) > 10 {
		millis = millis[len(millis)-10:]
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "ORD-" + millis + "-" + suffix
}

// CreateOrder prices the caller's cart at current catalog prices, opens a
// gateway payment intent and stores the pending order. The cart is kept until
// the payment is confirmed.
func (s *OrderService) CreateOrder(ctx context.Context, userID uint, in CreateOrderInput) (*models.Order, error) {
	if !in.DeliveryDetails.Complete() {
		return nil, apperr.Validation("All delivery details are required")
	}

	cart, err := s.store.Carts().FindByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && len(cart.Items) == 0) {
		return nil, apperr.Validation("Cart is empty")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to create order")
	}

	items, total, err := s.priceCart(ctx, cart)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          userID,
		OrderID:         newOrderID(s.now()),
		Items:           items,
		DeliveryDetails: in.DeliveryDetails,
		TotalAmount:     total,
		Currency:        s.cfg.Currency,
		PaymentStatus:   models.PaymentPending,
		OrderStatus:     models.StatusConfirmed,
		PaymentMethod:   "razorpay",
		Notes:           in.Notes,
		CartID:          cart.ID,
		CartVersion:     cart.Version,
	}

	notes := map[string]string{"userId": strconv.FormatUint(uint64(userID), 10)}
	if in.Notes != "" {
		notes["description"] = in.Notes
	}
	intent, err := s.createIntent(ctx, order.OrderID, total, notes)
	if err != nil {
		return nil, err
	}
	order.GatewayOrderID = intent.ID

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		entry := &models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusConfirmed,
			ChangedBy: userID,
			Note:      "Order placed",
		}
		if err := tx.Orders().AddHistory(ctx, entry); err != nil {
			return err
		}
		order.StatusHistory = []models.OrderStatusHistory{*entry}
		return nil
	})
	if err != nil {
		// the gateway intent exists but nothing references it locally
		s.logger.Error("order persist failed after gateway intent was created",
			"gateway_order_id", intent.ID, "order_id", order.OrderID, "error", err)
		return nil, apperr.Wrap(err, "Failed to create order")
	}

	s.metrics.OrderCreated()
	s.logger.Info("order created", "order_id", order.OrderID, "user_id", userID, "total", total.String())
	s.publish(ctx, events.OrderCreated, order, "", "")
	return order, nil
}

// priceCart freezes every cart line at the current catalog price
func (s *OrderService) priceCart(ctx context.Context, cart *models.Cart) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uint, len(cart.Items))
	for i, line := range cart.Items {
		ids[i] = line.FoodItemID
	}
	foods, err := s.store.Foods().FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, apperr.Wrap(err, "Failed to create order")
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	total := decimal.Zero
	for _, line := range cart.Items {
		food, ok := foods[line.FoodItemID]
		if !ok {
			return nil, decimal.Zero, apperr.NotFound("One or more items in cart are no longer available")
		}
		if !food.IsActive {
			return nil, decimal.Zero, apperr.NotFound(food.Name + " is no longer available")
		}
		if line.Size == "" {
			return nil, decimal.Zero, apperr.Validation("Item size is missing")
		}
		size, ok := models.ParseSize(string(line.Size))
		if !ok {
			return nil, decimal.Zero, apperr.Validation(fmt.Sprintf("Invalid size: %s for %s", line.Size, food.Name))
		}
		price, _ := food.Price.For(size)
		subtotal := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(subtotal)

		items = append(items, models.OrderItem{
			FoodItemID: food.ID,
			Name:       food.Name,
			Price:      price,
			Quantity:   line.Quantity,
			Size:       size,
			Subtotal:   subtotal,
		})
	}
	return items, total, nil
}

func (s *OrderService) createIntent(ctx context.Context, receipt string, total decimal.Decimal, notes map[string]string) (*payment.Intent, error) {
	start := time.Now()
	intent, err := s.gateway.CreateOrder(ctx, payment.IntentRequest{
		Amount:   payment.MinorUnits(total),
		Currency: s.cfg.Currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	s.metrics.GatewayCall(time.Since(start), err)
	if err != nil {
		s.logger.Error("payment gateway order failed", "receipt", receipt, "error", err)
		return nil, apperr.Wrap(err, "Failed to create payment order")
	}
	return intent, nil
}

// VerifyPayment checks the client callback signature and marks the order paid.
// Replaying the same callback is a no-op. An order whose earlier attempt
// failed can still be paid through the same gateway order.
func (s *OrderService) VerifyPayment(ctx context.Context, in VerifyPaymentInput) (*models.Order, error) {
	if in.GatewayOrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return nil, apperr.Validation("Missing payment verification details")
	}
	if !payment.VerifyPayment(s.cfg.KeySecret, in.GatewayOrderID, in.PaymentID, in.Signature) {
		s.metrics.PaymentVerified("callback", "signature_mismatch")
		s.logger.Warn("payment signature mismatch", "gateway_order_id", in.GatewayOrderID)
		return nil, apperr.SignatureMismatch("Payment signature verification failed")
	}
	return s.markPaid(ctx, "callback", in.GatewayOrderID, in.PaymentID, in.Signature)
}

func (s *OrderService) markPaid(ctx context.Context, source, gatewayOrderID, paymentID, signature string) (*models.Order, error) {
	var (
		order   *models.Order
		applied bool
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		order, err = tx.Orders().FindByGatewayOrderID(ctx, gatewayOrderID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Order not found")
		}
		if err != nil {
			return err
		}

		switch order.PaymentStatus {
		case models.PaymentSuccess:
			if order.GatewayPaymentID == paymentID {
				return nil
			}
			return apperr.Conflict("Payment for this order has already been completed")
		case models.PaymentFailed:
			s.logger.Info("payment succeeded after a failed attempt",
				"order_id", order.OrderID, "failed_payment_id", order.GatewayPaymentID, "payment_id", paymentID)
		}

		fields := map[string]interface{}{
			"payment_status":     models.PaymentSuccess,
			"gateway_payment_id": paymentID,
		}
		if signature != "" {
			fields["gateway_signature"] = signature
			order.GatewaySignature = signature
		}
		if err := tx.Orders().Update(ctx, order.ID, fields); err != nil {
			return err
		}
		order.PaymentStatus = models.PaymentSuccess
		order.GatewayPaymentID = paymentID
		applied = true

		return s.finalizeCart(ctx, tx, order)
	})
	if err != nil {
		s.metrics.PaymentVerified(source, string(apperr.KindOf(err)))
		return nil, apperr.Wrap(err, "Payment verification failed")
	}

	if !applied {
		s.metrics.PaymentVerified(source, "duplicate")
		return order, nil
	}
	s.metrics.PaymentVerified(source, "success")
	s.logger.Info("payment confirmed", "order_id", order.OrderID, "payment_id", paymentID, "source", source)
	s.publish(ctx, events.OrderPaid, order, "", "")
	return order, nil
}

// finalizeCart deletes the cart the order was built from. A cart edited
// after checkout, or a new cart created after a clear, is kept.
func (s *OrderService) finalizeCart(ctx context.Context, tx repository.Store, order *models.Order) error {
	cart, err := tx.Carts().FindByUser(ctx, order.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if cart.ID != order.CartID || cart.Version != order.CartVersion {
		s.logger.Warn("cart changed after checkout, keeping it",
			"order_id", order.OrderID, "cart_id", cart.ID, "cart_version", cart.Version,
			"order_cart_id", order.CartID, "order_cart_version", order.CartVersion)
		return nil
	}
	_, err = tx.Carts().DeleteIfCurrent(ctx, order.CartID, order.CartVersion)
	return err
}

// HandleWebhook applies a signed gateway event
func (s *OrderService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !payment.VerifyWebhook(s.cfg.WebhookSecret, body, signature) {
		s.metrics.PaymentVerified("webhook", "signature_mismatch")
		return apperr.SignatureMismatch("Invalid webhook signature")
	}
	ev, err := payment.ParseWebhook(body)
	if err != nil {
		return apperr.Validation("Malformed webhook payload")
	}

	switch ev.Event {
	case payment.EventPaymentCaptured, payment.EventOrderPaid:
		if ev.GatewayOrderID() == "" || ev.PaymentID() == "" {
			return apperr.Validation("Webhook is missing order or payment id")
		}
		_, err := s.markPaid(ctx, "webhook", ev.GatewayOrderID(), ev.PaymentID(), "")
		return err
	case payment.EventPaymentFailed:
		return s.markFailed(ctx, ev)
	default:
		s.logger.Debug("ignoring webhook event", "event", ev.Event)
		return nil
	}
}

// markFailed records a declined attempt. The gateway order stays payable, so
// a later capture still moves the order to success.
func (s *OrderService) markFailed(ctx context.Context, ev *payment.WebhookEvent) error {
	var (
		order   *models.Order
		applied bool
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		order, err = tx.Orders().FindByGatewayOrderID(ctx, ev.GatewayOrderID())
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Order not found")
		}
		if err != nil {
			return err
		}
		if order.PaymentStatus != models.PaymentPending {
			return nil
		}

		fields := map[string]interface{}{"payment_status": models.PaymentFailed}
		if id := ev.PaymentID(); id != "" {
			fields["gateway_payment_id"] = id
		}
		if err := tx.Orders().Update(ctx, order.ID, fields); err != nil {
			return err
		}
		order.PaymentStatus = models.PaymentFailed
		applied = true
		return nil
	})
	if err != nil {
		return apperr.Wrap(err, "Failed to record payment failure")
	}
	if !applied {
		return nil
	}

	reason := ""
	if ev.Payload.Payment != nil {
		reason = ev.Payload.Payment.Entity.ErrorDescription
	}
	s.metrics.PaymentVerified("webhook", "failed")
	s.logger.Info("payment failed", "order_id", order.OrderID, "reason", reason)
	s.publish(ctx, events.OrderPaymentFailed, order, "", reason)
	return nil
}

// CancelOrder cancels an order of the caller unless it is paid and already
// in the kitchen or on its way
func (s *OrderService) CancelOrder(ctx context.Context, userID uint, ref, reason string) (*models.Order, error) {
	order, err := s.ownedOrder(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	if err := statemachine.CanCustomerCancel(order.PaymentStatus, order.OrderStatus); err != nil {
		return nil, apperr.Validation("Order cannot be cancelled at this stage")
	}
	if strings.TrimSpace(reason) == "" {
		reason = defaultCancelReason
	}

	previous := order.OrderStatus
	if err := s.changeStatus(ctx, order, models.StatusCancelled, userID, reason, true); err != nil {
		return nil, apperr.Wrap(err, "Failed to cancel order")
	}
	order.Notes = reason

	s.logger.Info("order cancelled by customer", "order_id", order.OrderID, "user_id", userID)
	s.publish(ctx, events.OrderCancelled, order, string(previous), reason)
	return order, nil
}

// UpdateOrderStatus sets the status of any order on behalf of an admin. Only
// membership in the status set is checked unless StrictTransitions is on.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, actorID uint, ref, status string) (*models.Order, error) {
	next := models.OrderStatus(status)
	if !next.Valid() {
		names := make([]string, len(models.OrderStatuses))
		for i, st := range models.OrderStatuses {
			names[i] = string(st)
		}
		return nil, apperr.Validation("Invalid status. Must be one of: " + strings.Join(names, ", "))
	}

	order, err := s.store.Orders().FindByRef(ctx, ref)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to update order status")
	}

	if s.cfg.StrictTransitions {
		if err := statemachine.CanTransition(order.OrderStatus, next, statemachine.ActorAdmin); err != nil {
			return nil, apperr.Validation(err.Error())
		}
	}

	previous := order.OrderStatus
	if err := s.changeStatus(ctx, order, next, actorID, "", false); err != nil {
		return nil, apperr.Wrap(err, "Failed to update order status")
	}

	s.logger.Info("order status changed", "order_id", order.OrderID, "from", previous, "to", next, "by", actorID)
	s.publish(ctx, events.OrderStatusChanged, order, string(previous), "")
	return order, nil
}

func (s *OrderService) changeStatus(ctx context.Context, order *models.Order, to models.OrderStatus, actorID uint, note string, setNotes bool) error {
	from := order.OrderStatus
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		fields := map[string]interface{}{"order_status": to}
		if setNotes {
			fields["notes"] = note
		}
		if err := tx.Orders().Update(ctx, order.ID, fields); err != nil {
			return err
		}
		if from == to {
			return nil
		}
		entry := &models.OrderStatusHistory{OrderID: order.ID, FromStatus: from, ToStatus: to, ChangedBy: actorID, Note: note}
		if err := tx.Orders().AddHistory(ctx, entry); err != nil {
			return err
		}
		order.StatusHistory = append(order.StatusHistory, *entry)
		return nil
	})
	if err != nil {
		return err
	}
	order.OrderStatus = to
	return nil
}

// RetryPayment opens a fresh gateway intent for a pending order and points
// the order at it
func (s *OrderService) RetryPayment(ctx context.Context, userID uint, ref string) (*models.Order, error) {
	order, err := s.ownedOrder(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	switch order.PaymentStatus {
	case models.PaymentSuccess:
		return nil, apperr.Validation("Payment for this order has already been completed")
	case models.PaymentFailed:
		return nil, apperr.Validation("Payment for this order has failed. Please contact support")
	}

	intent, err := s.createIntent(ctx, order.OrderID+"-retry", order.TotalAmount, map[string]string{
		"userId":          strconv.FormatUint(uint64(userID), 10),
		"originalOrderId": order.OrderID,
		"retryAttempt":    "true",
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Orders().Update(ctx, order.ID, map[string]interface{}{"gateway_order_id": intent.ID}); err != nil {
		s.logger.Error("order persist failed after retry intent was created",
			"gateway_order_id", intent.ID, "order_id", order.OrderID, "error", err)
		return nil, apperr.Wrap(err, "Failed to retry payment")
	}
	order.GatewayOrderID = intent.ID
	s.logger.Info("payment retry initiated", "order_id", order.OrderID, "gateway_order_id", intent.ID)
	return order, nil
}

// ListMyOrders returns the caller's orders, newest first
func (s *OrderService) ListMyOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	orders, err := s.store.Orders().ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to retrieve orders")
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, userID uint, ref string) (*models.Order, error) {
	return s.ownedOrder(ctx, userID, ref)
}

func (s *OrderService) ownedOrder(ctx context.Context, userID uint, ref string) (*models.Order, error) {
	order, err := s.store.Orders().FindForUser(ctx, userID, ref)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to retrieve order")
	}
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order, previous, reason string) {
	ev := events.OrderEvent{
		OrderID:        order.OrderID,
		UserID:         order.UserID,
		OrderStatus:    string(order.OrderStatus),
		PaymentStatus:  string(order.PaymentStatus),
		TotalAmount:    order.TotalAmount,
		GatewayOrderID: order.GatewayOrderID,
		PaymentID:      order.GatewayPaymentID,
		PreviousStatus: previous,
		Reason:         reason,
	}
	if err := s.publisher.Publish(ctx, eventType, ev); err != nil {
		s.logger.Warn("event publish failed", "event", eventType, "order_id", order.OrderID, "error", err)
	}
}
