package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher sends events on "<prefix>.<event type>" subjects
type NATSPublisher struct {
	conn   natsConn
	prefix string
}

func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("quickbite-api"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

func (p *NATSPublisher) subject(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

func (p *NATSPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := encode(eventType, data)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject(eventType), body); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

// Close flushes pending messages before disconnecting
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

var _ Publisher = (*NATSPublisher)(nil)
