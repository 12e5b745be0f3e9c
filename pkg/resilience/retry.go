package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Backoff retries an operation with exponentially growing, jittered delays.
// Zero fields take defaults.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
	Factor   float64
	Jitter   float64
}

func (b Backoff) withDefaults() Backoff {
	if b.Attempts <= 0 {
		b.Attempts = 3
	}
	if b.Initial <= 0 {
		b.Initial = 100 * time.Millisecond
	}
	if b.Max <= 0 {
		b.Max = 5 * time.Second
	}
	if b.Factor < 1 {
		b.Factor = 2
	}
	if b.Jitter < 0 || b.Jitter > 1 {
		b.Jitter = 0
	}
	return b
}

// Delay is the wait after the given failed attempt (1-based), before jitter.
func (b Backoff) Delay(attempt int) time.Duration {
	b = b.withDefaults()
	d := float64(b.Initial)
	for range attempt - 1 {
		d *= b.Factor
		if d >= float64(b.Max) {
			return b.Max
		}
	}
	return time.Duration(d)
}

// Retry calls fn until it succeeds, the attempts run out, or ctx is done.
// Errors for which permanent returns true stop immediately; permanent may be
// nil.
func (b Backoff) Retry(ctx context.Context, op string, permanent func(error) bool, fn func(context.Context) error) error {
	b = b.withDefaults()
	log := slog.Default().With("component", "retry", "operation", op)
	var err error
	attempt := 1
	for ; ; attempt++ {
		if err = fn(ctx); err == nil {
			if attempt > 1 {
				log.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt == b.Attempts || (permanent != nil && permanent(err)) {
			break
		}
		wait := b.Delay(attempt)
		if b.Jitter > 0 {
			wait += time.Duration(float64(wait) * b.Jitter * (2*rand.Float64() - 1))
		}
		log.Warn("attempt failed, retrying", "attempt", attempt, "of", b.Attempts, "wait", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("%s: retry abandoned: %w", op, ctx.Err())
		}
	}
	return fmt.Errorf("%s failed after %d attempt(s): %w", op, attempt, err)
}
