package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("claude", 3, time.Minute)
	failure := errors.New("boom")

	assert.True(t, cb.Allow())
	cb.RecordResult(failure)
	cb.RecordResult(failure)
	assert.Equal(t, CircuitClosed, cb.State())

	cb.RecordResult(failure)
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreakerSuccessResetsCounter(t *testing.T) {
	cb := NewCircuitBreaker("claude", 2, time.Minute)
	failure := errors.New("boom")

	cb.RecordResult(failure)
	cb.RecordResult(nil)
	cb.RecordResult(failure)

	assert.Equal(t, CircuitClosed, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreakerHalfOpenProbe(t *testing.T) {
	cb := NewCircuitBreaker("claude", 1, 50*time.Millisecond)

	cb.RecordResult(errors.New("boom"))
	assert.False(t, cb.Allow())

	time.Sleep(80 * time.Millisecond)

	assert.True(t, cb.Allow(), "probe allowed after reset timeout")
	assert.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordResult(nil)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("claude", 1, 10*time.Millisecond)

	cb.RecordResult(errors.New("boom"))
	time.Sleep(30 * time.Millisecond)
	assert.True(t, cb.Allow())

	cb.RecordResult(errors.New("still down"))
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreakerProvider(t *testing.T) {
	assert.Equal(t, "gemini", NewCircuitBreaker("gemini", 1, time.Second).Provider())
}
