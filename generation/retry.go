package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hairizuanbinnoorazman/testcrafter/logger"
)

// RetryConfig bounds how a backend is retried.
type RetryConfig struct {
	// MaxAttempts includes the first call. Values below 1 mean 1.
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// Timeout applies to each attempt. Zero leaves the caller's deadline alone.
	Timeout time.Duration
}

// Retrying wraps a Generator with a per-attempt timeout and exponential backoff.
// Only KindUnavailable failures are retried; rejected prompts and caller
// cancellation return immediately.
type Retrying struct {
	next   Generator
	cfg    RetryConfig
	logger logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetrying wraps next.
func NewRetrying(next Generator, cfg RetryConfig, log logger.Logger) *Retrying {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BackoffMax < cfg.BackoffBase {
		cfg.BackoffMax = cfg.BackoffBase
	}
	return &Retrying{
		next:   next,
		cfg:    cfg,
		logger: log,
		sleep:  sleepContext,
	}
}

// Generate calls the wrapped backend until it succeeds, fails terminally, or the
// attempts run out.
func (r *Retrying) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		out, err := r.attempt(ctx, prompt)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		lastErr = err
		if !IsRetryable(err) || attempt == r.cfg.MaxAttempts {
			break
		}

		wait := r.backoff(attempt)
		r.logger.Warn(ctx, "generation attempt failed, retrying", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
			"backoff": wait.String(),
		})
		if err := r.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func (r *Retrying) attempt(ctx context.Context, prompt string) (string, error) {
	if r.cfg.Timeout <= 0 {
		return r.next.Generate(ctx, prompt)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	out, err := r.next.Generate(attemptCtx, prompt)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return "", &BackendError{
			Backend: "generation",
			Message: fmt.Sprintf("no response within %s", r.cfg.Timeout),
			Kind:    KindUnavailable,
		}
	}
	return out, err
}

func (r *Retrying) backoff(attempt int) time.Duration {
	return r.cfg.backoff(attempt)
}

// backoff returns BackoffBase doubled per previous attempt, capped at BackoffMax.
func (c RetryConfig) backoff(attempt int) time.Duration {
	d := c.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= c.BackoffMax {
			return c.BackoffMax
		}
	}
	return d
}

// Budget is the longest a Retrying call can take when every attempt times out.
// It is zero when Timeout is zero, since attempts are then unbounded.
func (c RetryConfig) Budget() time.Duration {
	if c.Timeout <= 0 {
		return 0
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.BackoffMax < c.BackoffBase {
		c.BackoffMax = c.BackoffBase
	}
	total := time.Duration(c.MaxAttempts) * c.Timeout
	for attempt := 1; attempt < c.MaxAttempts; attempt++ {
		total += c.backoff(attempt)
	}
	return total
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
