package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

var errUpstream = errors.New("upstream down")

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(clock *fakeClock, transitions *[]string) *CircuitBreaker {
	cb := NewCircuitBreaker("test", Config{
		MaxRequests:      1,
		Timeout:          10 * time.Second,
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OnStateChange: func(_ string, from, to State) {
			*transitions = append(*transitions, from.String()+"->"+to.String())
		},
	})
	cb.now = clock.now
	return cb
}

func fail() error    { return errUpstream }
func succeed() error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.Equal(t, errUpstream, cb.Execute(ctx, fail))
	}

	assert.Equal(t, StateOpen, cb.State())
	assert.Equal(t, ErrCircuitOpen, cb.Execute(ctx, succeed))
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestCircuitBreaker_SuccessResetsFailureStreak(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)
	ctx := context.Background()

	cb.Execute(ctx, fail)
	cb.Execute(ctx, fail)
	cb.Execute(ctx, succeed)
	cb.Execute(ctx, fail)

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.Counts().ConsecutiveFailures)
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cb.Execute(ctx, fail)
	}

	clock.t = clock.t.Add(11 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())

	assert.Equal(t, nil, cb.Execute(ctx, succeed))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cb.Execute(ctx, fail)
	}
	clock.t = clock.t.Add(11 * time.Second)

	assert.Equal(t, errUpstream, cb.Execute(ctx, fail))
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cb.Execute(ctx, fail)
	}
	clock.t = clock.t.Add(11 * time.Second)

	var inner error
	outer := cb.Execute(ctx, func() error {
		inner = cb.Execute(ctx, succeed)
		return nil
	})

	assert.Equal(t, nil, outer)
	assert.Equal(t, ErrTooManyRequests, inner)
}

func TestCircuitBreaker_CancelledContextNotCounted(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 5; i++ {
		err := cb.Execute(ctx, func() error { return ctx.Err() })
		assert.Equal(t, context.Canceled, err)
	}

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(0), cb.Counts().ConsecutiveFailures)
}
