// Package events publishes order lifecycle events to a message broker.
// Publishing is best-effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"quickbite-api/config"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types, also used as routing keys and NATS subjects
const (
	OrderCreated       = "order.created"
	OrderPaid          = "order.paid"
	OrderPaymentFailed = "order.payment_failed"
	OrderCancelled     = "order.cancelled"
	OrderStatusChanged = "order.status_changed"
)

// Envelope wraps every published payload
type Envelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

// OrderEvent is the payload of all order.* events
type OrderEvent struct {
	OrderID        string          `json:"orderId"`
	UserID         uint            `json:"userId"`
	OrderStatus    string          `json:"orderStatus"`
	PaymentStatus  string          `json:"paymentStatus"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	GatewayOrderID string          `json:"razorpayOrderId,omitempty"`
	PaymentID      string          `json:"razorpayPaymentId,omitempty"`
	PreviousStatus string          `json:"previousStatus,omitempty"`
	Reason         string          `json:"reason,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
	Close() error
}

// New builds the publisher selected by cfg.Driver
func New(cfg config.EventsConfig, logger *slog.Logger) (Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return Noop{}, nil
	case "rabbitmq":
		p, err := NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.Exchange)
		if err != nil {
			return nil, err
		}
		logger.Info("publishing events to rabbitmq", "exchange", cfg.Exchange)
		return p, nil
	case "nats":
		p, err := NewNATSPublisher(cfg.NATSURL, cfg.Exchange)
		if err != nil {
			return nil, err
		}
		logger.Info("publishing events to nats", "subject_prefix", cfg.Exchange)
		return p, nil
	}
	return nil, fmt.Errorf("unsupported events driver %q", cfg.Driver)
}

func encode(eventType string, data interface{}) ([]byte, error) {
	body, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", eventType, err)
	}
	return body, nil
}

// Noop drops every event
type Noop struct{}

func (Noop) Publish(context.Context, string, interface{}) error { return nil }
func (Noop) Close() error                                       { return nil }
