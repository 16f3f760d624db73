// Package events carries storefront events over kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicCheckoutCompleted = "checkout-completed"
	EventTypeHeader        = "event_type"
	EventCheckoutCompleted = "checkout_completed"
)

type CheckoutItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

// CheckoutCompleted is published once an order is stored. Every replica
// takes Items out of the SessionID cart when it arrives.
type CheckoutCompleted struct {
	OrderID       string         `json:"order_id"`
	SessionID     string         `json:"session_id"`
	CustomerEmail string         `json:"customer_email"`
	Items         []CheckoutItem `json:"items"`
	TotalAmount   int64          `json:"total_amount"`
	Currency      string         `json:"currency"`
	CompletedAt   time.Time      `json:"completed_at"`
}

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer MessageWriter
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func NewPublisher(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer}
}

func (p *Publisher) PublishCheckoutCompleted(ctx context.Context, event CheckoutCompleted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID), // order_id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: EventTypeHeader, Value: []byte(EventCheckoutCompleted)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish checkout event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// DecodeCheckoutCompleted parses a message value. Messages with another
// event_type header are rejected.
func DecodeCheckoutCompleted(m kafka.Message) (CheckoutCompleted, error) {
	for _, h := range m.Headers {
		if h.Key == EventTypeHeader && string(h.Value) != EventCheckoutCompleted {
			return CheckoutCompleted{}, fmt.Errorf("unexpected event type %q", h.Value)
		}
	}

	var event CheckoutCompleted
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return CheckoutCompleted{}, fmt.Errorf("error parsing message: %w", err)
	}
	if event.OrderID == "" {
		return CheckoutCompleted{}, fmt.Errorf("missing order_id for session %q", event.SessionID)
	}
	if event.SessionID == "" {
		return CheckoutCompleted{}, fmt.Errorf("missing session_id in order %q", event.OrderID)
	}
	return event, nil
}
