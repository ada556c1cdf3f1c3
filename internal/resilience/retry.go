package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Backoff controls Retry.
type Backoff struct {
	// Attempts is the total number of tries, first included.
	Attempts int
	// Initial is the delay before the second try; it doubles per attempt.
	Initial time.Duration
	// Max caps a single delay.
	Max time.Duration
	// Jitter spreads each delay by +/- this fraction.
	Jitter float64
	// Retryable decides which errors are retried. Nil uses IsTransient.
	Retryable func(error) bool
	// Name labels retry log lines.
	Name string
}

// DefaultBackoff is three attempts starting at 500ms.
func DefaultBackoff(name string) Backoff {
	return Backoff{Attempts: 3, Initial: 500 * time.Millisecond, Max: 10 * time.Second, Jitter: 0.2, Name: name}
}

func (b Backoff) withDefaults() Backoff {
	if b.Attempts <= 0 {
		b.Attempts = 1
	}
	if b.Initial <= 0 {
		b.Initial = 500 * time.Millisecond
	}
	if b.Max < b.Initial {
		b.Max = b.Initial
	}
	if b.Jitter < 0 || b.Jitter > 1 {
		b.Jitter = 0
	}
	if b.Retryable == nil {
		b.Retryable = IsTransient
	}
	return b
}

// delay returns the wait after the given zero-based attempt.
func (b Backoff) delay(attempt int) time.Duration {
	d := b.Initial << attempt
	if d > b.Max || d <= 0 {
		d = b.Max
	}
	if b.Jitter > 0 {
		spread := float64(d) * b.Jitter
		d += time.Duration((rand.Float64()*2 - 1) * spread)
	}
	return max(d, 0)
}

// Retry calls fn until it succeeds, returns a non-retryable error, the
// attempts run out or ctx is done. The last error is returned.
func Retry[T any](ctx context.Context, b Backoff, fn func(context.Context) (T, error)) (T, error) {
	b = b.withDefaults()
	var zero T
	var err error
	for attempt := 0; attempt < b.Attempts; attempt++ {
		var v T
		v, err = fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || !b.Retryable(err) || attempt == b.Attempts-1 {
			return zero, err
		}

		wait := b.delay(attempt)
		zap.L().Warn("resilience: retrying",
			zap.String("service", b.Name),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, err
		case <-t.C:
		}
	}
	return zero, err
}
