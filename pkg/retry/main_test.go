package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errConflict = errors.New("conflict")

func TestExecute_RetriesUntilSuccess(t *testing.T) {
	policy := NewExponentialBackoff(&Config{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
		Retryable:   func(err error) bool { return errors.Is(err, errConflict) },
	})

	calls := 0
	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errConflict
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecute_StopsOnPermanentError(t *testing.T) {
	permanent := errors.New("duplicate")
	policy := NewExponentialBackoff(&Config{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Retryable:   func(err error) bool { return errors.Is(err, errConflict) },
	})

	calls := 0
	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return permanent
	})

	assert.Same(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestExecute_ReportsExhaustion(t *testing.T) {
	policy := NewExponentialBackoff(&Config{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Jitter:      0.5,
		Retryable:   func(error) bool { return true },
	})

	err := policy.Execute(context.Background(), func(ctx context.Context) error { return errConflict })

	assert.True(t, IsMaxRetriesExceeded(err))
	assert.ErrorIs(t, err, errConflict)
}

func TestExecute_HonoursContextDuringBackoff(t *testing.T) {
	policy := NewExponentialBackoff(&Config{
		MaxAttempts: 10,
		BaseDelay:   time.Second,
		Retryable:   func(error) bool { return true },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := policy.Execute(ctx, func(ctx context.Context) error { return errConflict })

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDefaultRetryable_MatchesTransientFailures(t *testing.T) {
	assert.True(t, isTransient(errors.New("dial tcp: connection refused")))
	assert.False(t, isTransient(errors.New("syntax error")))
}
