package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errFail = errors.New("fail")

func failing(context.Context) error    { return errFail }
func succeeding(context.Context) error { return nil }

func TestCircuitBreaker_StateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		config        CircuitBreakerConfig
		setup         func(cb *CircuitBreaker)
		expectedState State
	}{
		{
			name:          "successful execution stays closed",
			config:        CircuitBreakerConfig{MaxFailures: 3, Timeout: 5 * time.Second},
			setup:         func(cb *CircuitBreaker) { _ = cb.Execute(context.Background(), succeeding) },
			expectedState: StateClosed,
		},
		{
			name:   "transition to open after max failures",
			config: CircuitBreakerConfig{MaxFailures: 3, Timeout: 5 * time.Second},
			setup: func(cb *CircuitBreaker) {
				for i := 0; i < 3; i++ {
					_ = cb.Execute(context.Background(), failing)
				}
			},
			expectedState: StateOpen,
		},
		{
			name:   "success resets failure count",
			config: CircuitBreakerConfig{MaxFailures: 2, Timeout: 5 * time.Second},
			setup: func(cb *CircuitBreaker) {
				_ = cb.Execute(context.Background(), failing)
				_ = cb.Execute(context.Background(), succeeding)
				_ = cb.Execute(context.Background(), failing)
			},
			expectedState: StateClosed,
		},
		{
			name:   "half-open success closes",
			config: CircuitBreakerConfig{MaxFailures: 1, Timeout: 20 * time.Millisecond},
			setup: func(cb *CircuitBreaker) {
				_ = cb.Execute(context.Background(), failing)
				time.Sleep(40 * time.Millisecond)
				_ = cb.Execute(context.Background(), succeeding)
			},
			expectedState: StateClosed,
		},
		{
			name:   "half-open failure reopens",
			config: CircuitBreakerConfig{MaxFailures: 1, Timeout: 20 * time.Millisecond},
			setup: func(cb *CircuitBreaker) {
				_ = cb.Execute(context.Background(), failing)
				time.Sleep(40 * time.Millisecond)
				_ = cb.Execute(context.Background(), failing)
			},
			expectedState: StateOpen,
		},
		{
			name:   "cancellation is not a failure",
			config: CircuitBreakerConfig{MaxFailures: 1, Timeout: 5 * time.Second},
			setup: func(cb *CircuitBreaker) {
				_ = cb.Execute(context.Background(), func(context.Context) error { return context.Canceled })
			},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewCircuitBreaker(tt.config)
			tt.setup(cb)
			assert.Equal(t, tt.expectedState, cb.State())
		})
	}
}

func TestCircuitBreaker_RejectsWhenOpen(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Minute})
	_ = cb.Execute(context.Background(), failing)

	called := false
	err := cb.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var changes []State
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:        "dataset",
		MaxFailures: 1,
		OnStateChange: func(name string, from, to State) {
			assert.Equal(t, "dataset", name)
			changes = append(changes, to)
		},
	})

	_ = cb.Execute(context.Background(), failing)

	// Delivered before Execute returns.
	assert.Equal(t, []State{StateOpen}, changes)
}

func TestCircuitBreaker_StateChangesArriveInOrder(t *testing.T) {
	var mu sync.Mutex
	var last State
	var outOfOrder int

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		Timeout:     time.Microsecond,
		OnStateChange: func(_ string, from, to State) {
			mu.Lock()
			defer mu.Unlock()
			if from != last {
				outOfOrder++
			}
			last = to
		},
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if (i+j)%2 == 0 {
					_ = cb.Execute(context.Background(), failing)
				} else {
					_ = cb.Execute(context.Background(), succeeding)
				}
			}
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, outOfOrder)
	assert.Equal(t, cb.State(), last)
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name          string
		attempts      int
		failUntil     int
		expectErr     bool
		expectedCalls int
	}{
		{name: "first attempt succeeds", attempts: 3, failUntil: 0, expectErr: false, expectedCalls: 1},
		{name: "succeeds on third", attempts: 3, failUntil: 2, expectErr: false, expectedCalls: 3},
		{name: "exhausts attempts", attempts: 2, failUntil: 5, expectErr: true, expectedCalls: 2},
		{name: "zero attempts means one", attempts: 0, failUntil: 5, expectErr: true, expectedCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), RetryConfig{Attempts: tt.attempts, Delay: time.Millisecond}, func(context.Context) error {
				calls++
				if calls <= tt.failUntil {
					return errFail
				}
				return nil
			})

			if tt.expectErr {
				assert.ErrorIs(t, err, errFail)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedCalls, calls)
		})
	}
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Retry(ctx, RetryConfig{Attempts: 5, Delay: time.Second}, func(context.Context) error {
		calls++
		cancel()
		return errFail
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestCircuitBreaker_CountsAndClock(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Minute})
	cb.now = func() time.Time { return now }

	_ = cb.Execute(context.Background(), succeeding)
	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, Counts{Requests: 2, ConsecutiveFailures: 1, Successes: 1}, cb.Counts())

	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, StateOpen, cb.State())

	_ = cb.Execute(context.Background(), succeeding)
	assert.Equal(t, 1, cb.Counts().Rejected)

	now = now.Add(time.Minute + time.Second)
	assert.NoError(t, cb.Execute(context.Background(), succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_IsFailure(t *testing.T) {
	errMissing := errors.New("missing")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		IsFailure:   func(err error) bool { return !errors.Is(err, errMissing) },
	})

	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), func(context.Context) error { return errMissing })
		assert.ErrorIs(t, err, errMissing)
	}
	assert.Equal(t, StateClosed, cb.State())

	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, StateOpen, cb.State())
}

func TestRetry_PermanentErrorStops(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{Attempts: 5, Delay: time.Millisecond}, func(context.Context) error {
		calls++
		return Permanent(errFail)
	})

	assert.ErrorIs(t, err, errFail)
	assert.Equal(t, errFail, err, "the permanent wrapper is removed")
	assert.Equal(t, 1, calls)
	assert.NoError(t, Permanent(nil))
}

func TestNextDelay(t *testing.T) {
	tests := []struct {
		name string
		cfg  RetryConfig
		in   time.Duration
		want time.Duration
	}{
		{name: "constant", cfg: RetryConfig{}, in: time.Second, want: time.Second},
		{name: "doubling", cfg: RetryConfig{Multiplier: 2}, in: time.Second, want: 2 * time.Second},
		{name: "capped", cfg: RetryConfig{Multiplier: 4, MaxDelay: 3 * time.Second}, in: time.Second, want: 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextDelay(tt.in, tt.cfg))
		})
	}
}
