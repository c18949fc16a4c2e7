// Package retry executes a workflow step's provider call with bounded
// attempts and exponential backoff. Grounded in cklxx-elephant.ai's
// internal/materials/storage retrying mapper, which wraps
// github.com/cenkalti/backoff/v4 behind a narrow interface the same way
// this package wraps it behind Policy.Execute.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"versify/internal/domain"
)

// Policy is one step's retry envelope: bounded attempts, exponential
// backoff between them, capped by the step's own per-attempt timeout.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	CapDelay    time.Duration
}

// DefaultPolicy mirrors the spec's base=1s, backoff=2.0 defaults.
func DefaultPolicy(maxAttempts int, cap time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Second,
		Multiplier:  2.0,
		CapDelay:    cap,
	}
}

// Classifier tells Execute whether an error is worth retrying.
// ParsingError and InvalidInput are never retriable; transport and
// timeout errors are.
type Classifier func(err error) bool

// DefaultClassifier retries domain.ErrProviderTransport and
// domain.ErrProviderTimeout; everything else (including
// domain.ErrParsing) is treated as non-retriable.
func DefaultClassifier(err error) bool {
	return errors.Is(err, domain.ErrProviderTransport) || errors.Is(err, domain.ErrProviderTimeout)
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.BaseDelay
	eb.Multiplier = p.Multiplier
	eb.MaxInterval = p.CapDelay
	eb.MaxElapsedTime = 0 // bounded by MaxAttempts instead of wall time
	bounded := backoff.WithMaxRetries(eb, uint64(max(p.MaxAttempts-1, 0)))
	return backoff.WithContext(bounded, ctx)
}

// Execute runs op up to p.MaxAttempts times, sleeping
// min(base*multiplier^(attempt-1), cap) between failures classified as
// retriable by classify. A non-retriable failure returns immediately.
// Cancellation (ctx.Done) aborts promptly, wrapping domain.ErrCancelled.
func Execute[T any](ctx context.Context, p Policy, classify Classifier, op func(ctx context.Context) (T, error)) (T, int, error) {
	var (
		result  T
		attempt int
	)

	operation := func() error {
		attempt++
		var err error
		result, err = op(ctx)
		if err == nil {
			return nil
		}
		if !classify(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(operation, p.backOff(ctx))
	if err != nil {
		if ctx.Err() != nil {
			return result, attempt, errorsJoin(domain.ErrCancelled, ctx.Err())
		}
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return result, attempt, perm.Err
		}
		return result, attempt, err
	}
	return result, attempt, nil
}

func errorsJoin(sentinel, cause error) error {
	return &wrappedCancel{sentinel: sentinel, cause: cause}
}

type wrappedCancel struct {
	sentinel error
	cause    error
}

func (w *wrappedCancel) Error() string { return w.sentinel.Error() + ": " + w.cause.Error() }
func (w *wrappedCancel) Unwrap() []error { return []error{w.sentinel, w.cause} }

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
