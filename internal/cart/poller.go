package cart

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafka.Reader the poller uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Poller settles carts when a checkout-completed event arrives, so replicas
// that did not serve the checkout drop the ordered lines too. Each replica
// must read with its own consumer group; a shared group would deliver every
// event to one replica only.
type Poller struct {
	carts   *Manager
	reader  MessageReader
	log     *zap.Logger
	backoff time.Duration
}

// NewKafkaReader starts a fresh group at the newest offset: checkouts older
// than the replica are already settled in the store.
func NewKafkaReader(topic, groupID string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafka.LastOffset,
		MaxBytes:    10e6, // 10MB
	})
}

// ReplicaGroupID derives this process's consumer group from base.
func ReplicaGroupID(base, replica string) string {
	if replica == "" {
		return base
	}
	return base + "-" + replica
}

func NewPoller(carts *Manager, reader MessageReader, log *zap.Logger) *Poller {
	return &Poller{carts: carts, reader: reader, log: log, backoff: time.Second}
}

// Run consumes until ctx is done or the reader is closed.
func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := p.getMessageAndSettleCart(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			select {
			case <-time.After(p.backoff):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warn("error closing reader", zap.Error(err))
	}
}

// getMessageAndSettleCart returns only reader errors; bad messages and failed
// settlements are logged and skipped.
func (p *Poller) getMessageAndSettleCart(ctx context.Context) error {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil && !errors.Is(err, io.EOF) {
			p.log.Warn("error reading message", zap.Error(err))
		}
		return err
	}

	event, err := events.DecodeCheckoutCompleted(m)
	if err != nil {
		p.log.Warn("skipping checkout message", zap.Error(err), zap.Int64("offset", m.Offset))
		return nil
	}

	if err := p.carts.Settle(ctx, event.SessionID, event.OrderID, orderedLines(event.Items)); err != nil {
		p.log.Error("failed to settle cart",
			zap.String("session_id", event.SessionID),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
	return nil
}

func orderedLines(items []events.CheckoutItem) []domain.CartLine {
	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, domain.CartLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}
