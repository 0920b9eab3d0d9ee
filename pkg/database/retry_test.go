package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errLocked = errors.New("database is locked")

func fastBackoff(maxRetries int) backoff {
	return backoff{maxRetries: maxRetries, base: time.Millisecond, max: 5 * time.Millisecond}
}

func TestIsBusyError(t *testing.T) {
	t.Parallel()

	busy := []string{
		"database is locked",
		"database table is locked",
		"SQLITE_BUSY",
		"SQLITE_LOCKED",
		"sqlite: step: database busy (5)",
		"sqlite: step: table locked (6)",
	}
	for _, msg := range busy {
		assert.True(t, isBusyError(errors.New(msg)), msg)
	}

	assert.False(t, isBusyError(nil))
	assert.False(t, isBusyError(errors.New("UNIQUE constraint failed: users.email")))
	assert.False(t, isBusyError(errors.New("no such table: books")))
}

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	b := backoff{maxRetries: 10, base: 50 * time.Millisecond, max: 2 * time.Second}

	for attempt := 0; attempt < 10; attempt++ {
		d := b.delay(attempt)
		floor := b.base << attempt
		if floor > b.max {
			floor = b.max
		}
		assert.GreaterOrEqual(t, d, floor, "attempt %d", attempt)
		assert.LessOrEqual(t, d, b.max, "attempt %d", attempt)
	}

	// Large shifts must not overflow into a negative wait.
	assert.Equal(t, b.max, b.delay(62))
}

func TestWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("returns the first success", func(t *testing.T) {
		attempts := 0
		v, err := withRetry(context.Background(), fastBackoff(5), func() (int, error) {
			attempts++
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, v)
		assert.Equal(t, 1, attempts)
	})

	t.Run("retries busy errors", func(t *testing.T) {
		attempts := 0
		v, err := withRetry(context.Background(), fastBackoff(5), func() (string, error) {
			attempts++
			if attempts < 3 {
				return "", errLocked
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Equal(t, 3, attempts)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		attempts := 0
		_, err := withRetry(context.Background(), fastBackoff(5), func() (int, error) {
			attempts++
			return 0, errors.New("FOREIGN KEY constraint failed")
		})
		require.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		attempts := 0
		_, err := withRetry(context.Background(), fastBackoff(3), func() (int, error) {
			attempts++
			return 0, errLocked
		})
		require.ErrorIs(t, err, errLocked)
		assert.Equal(t, 4, attempts)
	})

	t.Run("zero retries is a single attempt", func(t *testing.T) {
		attempts := 0
		_, err := withRetry(context.Background(), fastBackoff(0), func() (int, error) {
			attempts++
			return 0, errLocked
		})
		require.ErrorIs(t, err, errLocked)
		assert.Equal(t, 1, attempts)
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		b := backoff{maxRetries: 100, base: 20 * time.Millisecond, max: 20 * time.Millisecond}
		attempts := 0
		_, err := withRetry(ctx, b, func() (int, error) {
			attempts++
			if attempts == 2 {
				cancel()
			}
			return 0, errLocked
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, attempts)
	})
}
