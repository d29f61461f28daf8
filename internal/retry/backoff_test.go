package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastConfig(maxRetries int) Config {
	return Config{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2.0,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	res := Do(context.Background(), fastConfig(3), func() error { return nil })
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
	assert.NoError(t, res.LastError)
}

func TestDo_RetriesTransientErrors(t *testing.T) {
	calls := 0
	res := Do(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("connection refused")
		}
		return nil
	})
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	res := Do(context.Background(), fastConfig(3), func() error {
		calls++
		return fmt.Errorf("invalid api key")
	})
	assert.False(t, res.Success)
	assert.Equal(t, 1, calls)
	assert.EqualError(t, res.LastError, "invalid api key")
}

func TestDo_ExhaustsRetries(t *testing.T) {
	calls := 0
	res := Do(context.Background(), fastConfig(2), func() error {
		calls++
		return fmt.Errorf("timeout")
	})
	assert.False(t, res.Success)
	assert.Equal(t, 3, calls, "initial attempt plus two retries")
}

func TestDo_ContextCancellationStopsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(5)
	cfg.BaseDelay = time.Minute

	calls := 0
	done := make(chan Result, 1)
	go func() {
		done <- Do(ctx, cfg, func() error {
			calls++
			return fmt.Errorf("service unavailable")
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case res := <-done:
		assert.False(t, res.Success)
		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, res.LastError, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(fmt.Errorf("invalid request")))
	assert.True(t, IsRetryable(fmt.Errorf("429 Too Many Requests")))
	assert.True(t, IsRetryable(fmt.Errorf("dial tcp: connection refused")))
	assert.True(t, IsRetryable(fmt.Errorf("rate limit exceeded")))
	assert.True(t, IsRetryable(fmt.Errorf("context deadline exceeded")))
}

func TestDelayFor_CapsAtMax(t *testing.T) {
	cfg := Config{BaseDelay: time.Second, MaxDelay: 4 * time.Second, Multiplier: 2.0}
	assert.Equal(t, time.Second, delayFor(cfg, 0))
	assert.Equal(t, 2*time.Second, delayFor(cfg, 1))
	assert.Equal(t, 4*time.Second, delayFor(cfg, 5), "delay never exceeds the cap")
}
