package retrieval

import (
	"context"
	"math"
	"time"
)

// Backoff is the retry schedule for web search. Delay(n) is the wait after
// the n-th failed attempt (0-based): BaseDelay * Multiplier^n.
type Backoff struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultBackoff makes three attempts, waiting 1s then 2s between them.
func DefaultBackoff() Backoff {
	return Backoff{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2}
}

// Delay returns the wait after failed attempt n.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 || b.BaseDelay <= 0 {
		return 0
	}
	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}
	return time.Duration(float64(b.BaseDelay) * math.Pow(mult, float64(attempt)))
}

// Attempts is MaxAttempts floored at one.
func (b Backoff) Attempts() int {
	if b.MaxAttempts < 1 {
		return 1
	}
	return b.MaxAttempts
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
