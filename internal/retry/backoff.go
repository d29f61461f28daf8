package retry

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config controls exponential backoff retry behavior.
type Config struct {
	MaxRetries int           `json:"max_retries"`
	BaseDelay  time.Duration `json:"base_delay"`
	MaxDelay   time.Duration `json:"max_delay"`
	Multiplier float64       `json:"multiplier"`
	Jitter     bool          `json:"jitter"`
	LogRetries bool          `json:"log_retries"`
}

// Result describes how a retried operation went.
type Result struct {
	Attempts      int           `json:"attempts"`
	TotalDuration time.Duration `json:"total_duration"`
	LastError     error         `json:"-"`
	Success       bool          `json:"success"`
}

// DefaultConfig returns sensible defaults for internal operations.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
		LogRetries: true,
	}
}

// CompletionConfig returns the policy for text-completion calls: one
// retry, then the caller falls back to a static reply.
func CompletionConfig() Config {
	return Config{
		MaxRetries: 1,
		BaseDelay:  2 * time.Second,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
		LogRetries: true,
	}
}

// Do executes op with exponential backoff. Non-retryable errors fail
// immediately; context cancellation stops both attempts and backoff
// waits.
func Do(ctx context.Context, cfg Config, op func() error) Result {
	start := time.Now()
	res := Result{}

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		res.Attempts = attempt + 1

		err := op()
		if err == nil {
			res.Success = true
			res.TotalDuration = time.Since(start)
			if cfg.LogRetries && attempt > 0 {
				log.Debug().Int("retries", attempt).Dur("total", res.TotalDuration).
					Msg("Operation succeeded after retries")
			}
			return res
		}
		res.LastError = err

		if !IsRetryable(err) || attempt >= cfg.MaxRetries || ctx.Err() != nil {
			res.TotalDuration = time.Since(start)
			if cfg.LogRetries {
				log.Warn().Err(err).Int("attempts", res.Attempts).
					Msg("Operation failed, giving up")
			}
			return res
		}

		delay := delayFor(cfg, attempt)
		if cfg.LogRetries {
			log.Debug().Err(err).Int("attempt", attempt+1).Dur("delay", delay).
				Msg("Operation failed, retrying")
		}

		select {
		case <-ctx.Done():
			res.LastError = ctx.Err()
			res.TotalDuration = time.Since(start)
			return res
		case <-time.After(delay):
		}
	}

	res.TotalDuration = time.Since(start)
	return res
}

func delayFor(cfg Config, attempt int) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		jitterRange := delay * 0.1
		delay += (rand.Float64() - 0.5) * 2 * jitterRange
		if delay < 0 {
			delay = float64(cfg.BaseDelay)
		}
	}
	return time.Duration(delay)
}

// IsRetryable reports whether an error looks transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"service unavailable",
		"too many requests",
		"rate limit",
		"429",
		"502",
		"503",
		"504",
		"no such host",
		"network unreachable",
		"broken pipe",
		"context deadline exceeded",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
