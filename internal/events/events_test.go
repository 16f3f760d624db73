package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishCheckoutCompleted_RoundTrip(t *testing.T) {
	w := &recordingWriter{}
	p := NewPublisher(w)
	event := CheckoutCompleted{
		OrderID:       "ord-1",
		SessionID:     "sess-1",
		CustomerEmail: "sita@example.com",
		Items:         []CheckoutItem{{ProductID: "f1", ProductName: "Kafal", Quantity: 3, UnitPrice: 300}},
		TotalAmount:   900,
		Currency:      "NPR",
		CompletedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.PublishCheckoutCompleted(context.Background(), event))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "ord-1", string(w.msgs[0].Key))

	decoded, err := DecodeCheckoutCompleted(w.msgs[0])
	require.NoError(t, err)
	assert.Equal(t, event, decoded)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishCheckoutCompleted_WriterError(t *testing.T) {
	p := NewPublisher(&recordingWriter{err: errors.New("broker down")})

	err := p.PublishCheckoutCompleted(context.Background(), CheckoutCompleted{OrderID: "ord-1"})

	assert.ErrorContains(t, err, "broker down")
}

func TestDecodeCheckoutCompleted_Rejects(t *testing.T) {
	_, err := DecodeCheckoutCompleted(kafka.Message{Value: []byte("{bad")})
	assert.Error(t, err)

	_, err = DecodeCheckoutCompleted(kafka.Message{Value: []byte(`{"order_id":"o"}`)})
	assert.ErrorContains(t, err, "missing session_id")

	_, err = DecodeCheckoutCompleted(kafka.Message{Value: []byte(`{"session_id":"s"}`)})
	assert.ErrorContains(t, err, "missing order_id")

	_, err = DecodeCheckoutCompleted(kafka.Message{
		Value:   []byte(`{"order_id":"o","session_id":"s"}`),
		Headers: []kafka.Header{{Key: EventTypeHeader, Value: []byte("refund")}},
	})
	assert.ErrorContains(t, err, "unexpected event type")
}
