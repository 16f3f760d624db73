// Package contact stores contact form messages and relays them to the shop's
// mailbox.
package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/circuitbreaker"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// ErrRelay reports a message that was stored but not delivered.
var ErrRelay = errors.New("message relay failed")

type Store interface {
	Save(ctx context.Context, msg domain.ContactMessage) error
}

// Relay delivers a stored message. Deliver returns nil only on a confirmed
// delivery.
type Relay interface {
	Deliver(ctx context.Context, msg domain.ContactMessage) error
}

type Service struct {
	store Store
	relay Relay
	log   *zap.Logger
	now   func() time.Time
}

// NewService builds the service. relay may be nil: the stored message is
// then the whole outcome.
func NewService(store Store, relay Relay, log *zap.Logger) *Service {
	return &Service{store: store, relay: relay, log: log, now: time.Now}
}

// Submit validates, stores and relays msg. The caller always learns the
// outcome: a store failure is a *domain.PersistenceError, a relay failure
// wraps ErrRelay (the message is stored in that case).
func (s *Service) Submit(ctx context.Context, name, email, message string) (domain.ContactMessage, error) {
	msg := domain.ContactMessage{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Message: strings.TrimSpace(message),
	}
	if err := msg.Validate(); err != nil {
		return domain.ContactMessage{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.ContactMessage{}, fmt.Errorf("failed to generate message id: %w", err)
	}
	msg.ID = "msg-" + id.String()
	msg.CreatedAt = s.now().UTC().Truncate(time.Millisecond)

	if err := s.store.Save(ctx, msg); err != nil {
		return domain.ContactMessage{}, domain.NewPersistenceError("save contact message", "contact", err)
	}

	if s.relay == nil {
		return msg, nil
	}
	if err := s.relay.Deliver(ctx, msg); err != nil {
		s.log.Error("contact relay failed", zap.String("message_id", msg.ID), zap.Error(err))
		return msg, fmt.Errorf("%w: %v", ErrRelay, err)
	}
	return msg, nil
}

type relayRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type relayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HTTPRelay posts messages as JSON to an email relay endpoint. A delivery
// counts only on a 2xx answer whose body reports success.
type HTTPRelay struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker[struct{}]
}

func NewHTTPRelay(url string, timeout time.Duration, log *zap.Logger) *HTTPRelay {
	client := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return NewHTTPRelayWithClient(url, client, log)
}

func NewHTTPRelayWithClient(url string, client *http.Client, log *zap.Logger) *HTTPRelay {
	return &HTTPRelay{
		url:    url,
		client: client,
		cb:     circuitbreaker.New[struct{}]("contact-relay", circuitbreaker.Settings{}, log),
	}
}

func (r *HTTPRelay) Deliver(ctx context.Context, msg domain.ContactMessage) error {
	_, err := r.cb.Execute(func() (struct{}, error) {
		return struct{}{}, r.post(ctx, msg)
	})
	return err
}

func (r *HTTPRelay) post(ctx context.Context, msg domain.ContactMessage) error {
	body, err := json.Marshal(relayRequest{Name: msg.Name, Email: msg.Email, Message: msg.Message})
	if err != nil {
		return fmt.Errorf("failed to marshal relay request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("relay returned status %d", resp.StatusCode)
	}

	var out relayResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode relay response: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("relay rejected message: %s", out.Message)
	}
	return nil
}
