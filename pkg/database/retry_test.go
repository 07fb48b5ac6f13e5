package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetries(t *testing.T) {
	t.Helper()
	prev := retryBaseWait
	retryBaseWait = time.Millisecond
	t.Cleanup(func() { retryBaseWait = prev })
}

func TestBackoff_DoublesWithinJitter(t *testing.T) {
	for attempt := range retryAttempts {
		base := retryBaseWait << attempt
		lo := time.Duration(float64(base) * (1 - retryJitter))
		hi := time.Duration(float64(base) * (1 + retryJitter))

		for range 20 {
			d := backoff(attempt)
			assert.GreaterOrEqual(t, d, lo, "attempt %d", attempt)
			assert.LessOrEqual(t, d, hi, "attempt %d", attempt)
		}
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), true},
		{errors.New("read: connection reset by peer"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("i/o timeout"), true},
		{fmt.Errorf("query: %w", io.EOF), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("could not connect to server"), true},
		{errors.New(`syntax error at or near "TABLE"`), false},
		{errors.New("duplicate key value violates unique constraint"), false},
		{errors.New(`relation "search_misses" does not exist`), false},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	fastRetries(t)

	calls := 0
	err := retry(context.Background(), discardLogger(), "ping", true, func(context.Context) error {
		calls++
		if calls < retryAttempts {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, retryAttempts, calls)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	fastRetries(t)

	calls := 0
	err := retry(context.Background(), discardLogger(), "migrate", true, func(context.Context) error {
		calls++
		return errors.New("syntax error")
	})

	require.EqualError(t, err, "syntax error")
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	fastRetries(t)

	calls := 0
	err := retry(context.Background(), nil, "connect", false, func(context.Context) error {
		calls++
		return errors.New("auth failed")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect after 3 attempts")
	assert.Equal(t, retryAttempts, calls)
}

func TestRetry_ContextCanceledDuringBackoff(t *testing.T) {
	retryBaseWait = time.Hour
	t.Cleanup(func() { retryBaseWait = time.Second })

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry(ctx, nil, "connect", false, func(context.Context) error {
		calls++
		cancel()
		return errors.New("connection refused")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
