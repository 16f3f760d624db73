package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_TripsAfterConsecutiveFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cb := New[int]("test", Settings{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, zap.New(core))
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
	}

	calls := 0
	_, err := cb.Execute(func() (int, error) {
		calls++
		return 1, nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Zero(t, calls)
	assert.Equal(t, gobreaker.StateOpen, cb.State())
	assert.Equal(t, 1, logs.FilterMessage("circuit breaker state changed").Len())
}

func TestNew_Defaults(t *testing.T) {
	cb := New[string]("defaults", Settings{}, zap.NewNop())

	v, err := cb.Execute(func() (string, error) { return "ok", nil })
	assert.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, "defaults", cb.Name())
}
