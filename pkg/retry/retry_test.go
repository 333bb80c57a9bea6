package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoStopsOnSuccess(t *testing.T) {
	calls := 0
	p := Policy{Attempts: 3, BaseDelay: time.Millisecond, Transient: TransientText}
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("429 too many requests")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	p := Policy{Attempts: 3, BaseDelay: time.Millisecond, Transient: TransientText}
	err := p.Do(context.Background(), func() error {
		calls++
		return errors.New("overloaded")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoFatalErrorNoRetry(t *testing.T) {
	calls := 0
	p := Policy{Attempts: 3, BaseDelay: time.Millisecond, Transient: TransientText}
	err := p.Do(context.Background(), func() error {
		calls++
		return errors.New("invalid api key")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := Policy{Attempts: 3, BaseDelay: time.Minute, Transient: TransientText}
	err := p.Do(ctx, func() error { return errors.New("timeout") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransientText(t *testing.T) {
	assert.True(t, TransientText(errors.New("Rate limit exceeded")))
	assert.True(t, TransientText(errors.New("server overloaded")))
	assert.True(t, TransientText(errors.New("request timed out")))
	assert.True(t, TransientText(errors.New("unexpected status 503")))
	assert.False(t, TransientText(errors.New("invalid request body")))
	assert.False(t, TransientText(nil))
}

func TestTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, TransientHTTPStatus(code))
	}
	for _, code := range []int{200, 400, 401, 403, 404} {
		assert.False(t, TransientHTTPStatus(code))
	}
}
