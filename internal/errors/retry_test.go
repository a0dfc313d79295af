package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_DefaultIsOneShot(t *testing.T) {
	// Given: a function that always fails
	attempts := 0
	sentinel := errors.New("refused")
	fn := func() error {
		attempts++
		return sentinel
	}

	// When: retrying with the default config
	err := Retry(context.Background(), DefaultRetryConfig(), fn)

	// Then: exactly one attempt, original error returned unwrapped
	assert.Equal(t, 1, attempts)
	assert.Same(t, sentinel, err)
}

func TestRetry_SucceedsAfterTransientError(t *testing.T) {
	attempts := 0
	fn := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient error")
		}
		return nil
	}

	cfg := DefaultRetryConfig()
	cfg.MaxRetries = 3
	cfg.InitialDelay = 5 * time.Millisecond

	err := Retry(context.Background(), cfg, fn)

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_FailsAfterMaxRetries(t *testing.T) {
	attempts := 0
	var retried []int
	fn := func() error {
		attempts++
		return errors.New("persistent error")
	}

	cfg := RetryConfig{
		MaxRetries:   2,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Multiplier:   2.0,
		OnRetry:      func(attempt int, _ error) { retried = append(retried, attempt) },
	}

	err := Retry(context.Background(), cfg, fn)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetry_RespectsContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	cfg := RetryConfig{
		MaxRetries:   10,
		InitialDelay: 30 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}

	err := Retry(ctx, cfg, func() error { return errors.New("error") })

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRetryWithResult_ReturnsValue(t *testing.T) {
	attempts := 0
	fn := func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, errors.New("error")
		}
		return 42, nil
	}

	cfg := DefaultRetryConfig()
	cfg.MaxRetries = 1
	cfg.InitialDelay = 5 * time.Millisecond

	result, err := RetryWithResult(context.Background(), cfg, fn)

	assert.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestRetryWithResult_ReturnsZeroOnFailure(t *testing.T) {
	fn := func() (string, error) {
		return "partial", errors.New("error")
	}

	result, err := RetryWithResult(context.Background(), DefaultRetryConfig(), fn)

	assert.Error(t, err)
	assert.Empty(t, result)
}
