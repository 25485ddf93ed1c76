package llm

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightpdf/insightpdf/internal/domain"
)

const (
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 30 * time.Second
)

// transientError marks a failure as retryable.
type transientError struct {
	err     error
	timeout bool
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err so the retry policy will attempt it again.
func Transient(err error) error {
	return &transientError{err: err}
}

// TransientTimeout wraps a deadline failure; exhaustion surfaces as ModelTimeout.
func TransientTimeout(err error) error {
	return &transientError{err: err, timeout: true}
}

// RetryPolicy retries transient failures with bounded exponential backoff.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	logger zerolog.Logger
}

// NewRetryPolicy creates a policy with maxAttempts total attempts.
func NewRetryPolicy(maxAttempts int, logger zerolog.Logger) *RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryPolicy{
		MaxAttempts:    maxAttempts,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		logger:         logger,
	}
}

// retryableStatus reports whether an HTTP status is worth another attempt.
func retryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, // 408
		http.StatusTooManyRequests,     // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

// backoff calculates the exponential delay before the given retry.
func (p *RetryPolicy) backoff(attempt int) time.Duration {
	d := float64(p.InitialBackoff) * math.Pow(2, float64(attempt))
	if d > float64(p.MaxBackoff) {
		d = float64(p.MaxBackoff)
	}
	return time.Duration(d)
}

// Do runs fn up to MaxAttempts times. Only errors wrapped with Transient or
// TransientTimeout are retried; anything else returns immediately. When all
// attempts fail the last error is mapped to ModelTimeout or ModelUnavailable.
func (p *RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		var te *transientError
		if !errors.As(err, &te) {
			return "", err
		}
		lastErr = err

		if attempt == p.MaxAttempts-1 {
			break
		}

		backoff := p.backoff(attempt)
		p.logger.Warn().
			Int("attempt", attempt+1).
			Int("max_attempts", p.MaxAttempts).
			Dur("backoff", backoff).
			Err(err).
			Msg("model request failed, retrying")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	var te *transientError
	if errors.As(lastErr, &te) && te.timeout {
		return "", domain.ModelTimeoutError("model request timed out after retries", lastErr)
	}
	return "", domain.ModelUnavailableError("model request failed after retries", lastErr)
}
