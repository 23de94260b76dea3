// Package resilience provides the timeout/retry wrapper and the per-provider
// circuit breaker every provider adapter is wrapped with.
package resilience

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/ternarybob/arbor"
)

// RetryPolicy bounds each attempt with a timeout and retries transient
// failures with exponential backoff. The terminal error after exhausting the
// budget propagates unchanged.
type RetryPolicy struct {
	Timeout    time.Duration // Per-attempt budget, enforced via context cancellation
	MaxRetries int           // Retries after the first attempt
	Backoff    time.Duration // Initial backoff, doubled per attempt
	MaxBackoff time.Duration // Cap on a single backoff wait (0 = uncapped)
}

// permanentError marks an error as non-retryable.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps an error so the retry loop propagates it immediately
// without consuming retry budget. Use it for errors a retry cannot fix, such
// as authorization failures.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// transientError marks an error as explicitly retryable, for failures the
// generic classification cannot see (rate limits, 5xx responses).
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks an error as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// Execute runs op with the policy. Each attempt receives a context bounded by
// the per-attempt timeout; transient failures back off Backoff*2^attempt
// between attempts. Cancellation of the parent context stops the loop.
func (p *RetryPolicy) Execute(ctx context.Context, logger arbor.ILogger, op func(ctx context.Context) error) error {
	attempts := p.MaxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if p.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		lastErr = op(attemptCtx)
		cancel()

		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			logger.Debug().Err(perm.err).Msg("Non-retryable error, failing immediately")
			return perm.err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !IsRetryable(lastErr) {
			logger.Debug().Err(lastErr).Int("attempt", attempt+1).Msg("Error not retryable")
			return lastErr
		}

		if attempt < attempts-1 {
			backoff := p.backoffFor(attempt)
			logger.Debug().
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Err(lastErr).
				Msg("Retrying after backoff")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	logger.Warn().
		Int("attempts", attempts).
		Err(lastErr).
		Msg("All retry attempts exhausted")

	return lastErr
}

func (p *RetryPolicy) backoffFor(attempt int) time.Duration {
	backoff := p.Backoff
	for i := 0; i < attempt; i++ {
		backoff *= 2
	}
	if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
		backoff = p.MaxBackoff
	}
	return backoff
}

// IsRetryable reports whether an error is timeout-shaped or otherwise
// transient: deadline expiry, network timeouts, and connection-level errors.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var transient *transientError
	if errors.As(err, &transient) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return false
}
