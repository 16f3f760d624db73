// Package circuitbreaker builds the gobreaker breakers guarding outbound
// HTTP calls (spreadsheet feed, contact relay).
package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type Settings struct {
	// ConsecutiveFailures trips the breaker. Zero means 5.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a probe. Zero means 30s.
	OpenTimeout time.Duration
}

func New[T any](name string, s Settings, log *zap.Logger) *gobreaker.CircuitBreaker[T] {
	failures := s.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	timeout := s.OpenTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}
