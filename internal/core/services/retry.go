package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
	"github.com/custodia-labs/finrag/internal/logger"
)

// RetryPolicy retries provider calls that fail with rate-limit or transient
// errors. The wait before retry n is Base*2^(n-1), clamped to [MinWait, MaxWait].
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	MinWait     time.Duration
	MaxWait     time.Duration

	// Retryable decides whether an error is worth another attempt.
	// Defaults to IsRetryable.
	Retryable func(error) bool

	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy returns the provider retry policy: five attempts with
// exponential waits between 2 and 30 seconds.
func DefaultRetryPolicy() RetryPolicy {
	return NewRetryPolicy(domain.RetrySettings{
		MaxAttempts: domain.DefaultRetryAttempts,
		MinWait:     domain.DefaultRetryMinWait,
		MaxWait:     domain.DefaultRetryMaxWait,
	})
}

// NewRetryPolicy builds a policy from settings.
func NewRetryPolicy(s domain.RetrySettings) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: s.MaxAttempts,
		Base:        time.Second,
		MinWait:     s.MinWait,
		MaxWait:     s.MaxWait,
	}
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	wait := p.Base
	for i := 1; i < attempt && wait < p.MaxWait; i++ {
		wait *= 2
	}
	if wait < p.MinWait {
		wait = p.MinWait
	}
	if p.MaxWait > 0 && wait > p.MaxWait {
		wait = p.MaxWait
	}
	return wait
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempts are exhausted. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !retryable(err) || attempt == attempts {
			break
		}
		wait := p.Backoff(attempt)
		logger.Warn("%s failed (attempt %d/%d), retrying in %s: %v", op, attempt, attempts, wait, err)
		if serr := sleep(ctx, wait); serr != nil {
			return fmt.Errorf("%s: %w", op, serr)
		}
	}
	return err
}

// Retry is Do for calls that return a value.
func Retry[T any](ctx context.Context, p RetryPolicy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// IsRetryable reports whether err is a rate-limit or transient provider error.
// Context cancellation is never retried.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, domain.ErrRateLimited) {
		return true
	}
	var re driven.RetryableError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
