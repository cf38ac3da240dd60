package services

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"syscall"
	"time"

	logger "github.com/Bparsons0904/goLogger"
)

// RetryPolicy is a bounded retry with exponential backoff. MaxRetries
// counts additional attempts, so MaxRetries 4 means up to 5 calls.
type RetryPolicy struct {
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	JitterRatio float64
	IsRetryable func(error) bool
}

// WithRetry executes op under the policy. Retryable failures wait
// min(MaxDelay, BaseDelay*2^attempt) jittered by ±JitterRatio before the
// next attempt; a non-retryable failure or exhausted retries propagates
// the last error unchanged.
func WithRetry[T any](
	ctx context.Context,
	log logger.Logger,
	policy RetryPolicy,
	op func() (T, error),
) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if policy.IsRetryable != nil && !policy.IsRetryable(err) {
			break
		}
		if attempt == policy.MaxRetries {
			break
		}

		wait := jitterDelay(backoffDelay(policy, attempt), policy.JitterRatio)
		log.Info("Retrying after backoff",
			"attempt", attempt+1,
			"maxRetries", policy.MaxRetries,
			"wait", wait.String(),
			"reason", err.Error(),
		)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}

// backoffDelay returns the pre-jitter delay for an attempt number.
func backoffDelay(policy RetryPolicy, attempt int) time.Duration {
	delay := policy.BaseDelay
	for range attempt {
		delay *= 2
		if delay >= policy.MaxDelay || delay <= 0 {
			return policy.MaxDelay
		}
	}
	if delay > policy.MaxDelay {
		return policy.MaxDelay
	}
	return delay
}

func jitterDelay(d time.Duration, ratio float64) time.Duration {
	if ratio <= 0 {
		return d
	}

	delta := (rand.Float64()*2 - 1) * ratio * float64(d)
	jittered := time.Duration(float64(d) + delta)
	if jittered < 0 {
		return 0
	}
	return jittered
}

// IsRetryableHTTP classifies network errors: timeouts, 5xx responses
// and connection-reset/DNS-transient failures are worth retrying;
// everything else (4xx, malformed input) is terminal.
func IsRetryableHTTP(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED)
}
