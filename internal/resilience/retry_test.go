package resilience

import (
	"context"
	"fmt"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDoValSucceedsFirstTry(t *testing.T) {
	calls := 0
	got, err := DoVal(context.Background(), fastConfig(), func(ctx context.Context) (string, error) {
		calls++
		return "job-1", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "job-1", got)
	assert.Equal(t, 1, calls)
}

func TestDoValRetriesTransient(t *testing.T) {
	calls := 0
	got, err := DoVal(context.Background(), fastConfig(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(eris.New("boom"), http.StatusServiceUnavailable)
		}
		return "job-2", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "job-2", got)
	assert.Equal(t, 3, calls)
}

func TestDoValStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastConfig(), func(ctx context.Context) (string, error) {
		calls++
		return "", eris.New("bad request")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoValExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastConfig(), func(ctx context.Context) (string, error) {
		calls++
		return "", NewTransientError(eris.New("still down"), 502)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoValRespectsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := DoVal(ctx, fastConfig(), func(ctx context.Context) (string, error) {
		calls++
		cancel()
		return "", NewTransientError(eris.New("down"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

// timeoutErr satisfies net.Error the way an http.Client deadline does.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(eris.New("validation failed")))
	assert.True(t, IsTransient(NewTransientError(eris.New("x"), 429)))
	assert.True(t, IsTransient(timeoutErr{}))
	assert.True(t, IsTransient(fmt.Errorf("post reminder: %w", syscall.ECONNRESET)))
	assert.True(t, IsTransient(fmt.Errorf("post reminder: %w", syscall.ECONNREFUSED)))
	assert.False(t, IsTransient(fmt.Errorf("decode response: %w", eris.New("bad json"))))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), code)
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404} {
		assert.False(t, IsTransientHTTPStatus(code), code)
	}
}
