// Package throttle gates upstream calls behind a process-wide minimum
// interval. All callers are serialized through one limiter so two
// concurrent requests can never both fire inside the interval window.
package throttle

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum wall-clock interval between consecutive
// admissions. Safe for concurrent use; the wait-then-stamp sequence is
// atomic inside the underlying token bucket. No state survives a
// process restart, so a fresh limiter admits immediately.
type Limiter struct {
	rl       *rate.Limiter
	interval time.Duration
}

// New builds a limiter admitting one call per minIntervalSeconds.
// An interval <= 0 disables throttling.
func New(minIntervalSeconds float64) *Limiter {
	if minIntervalSeconds <= 0 {
		return &Limiter{rl: rate.NewLimiter(rate.Inf, 1)}
	}
	interval := time.Duration(minIntervalSeconds * float64(time.Second))
	return &Limiter{
		rl:       rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Acquire blocks until the caller is admitted or ctx is done. A
// canceled waiter returns its reserved slot, so the next caller is not
// charged for an admission that never happened.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.rl.Wait(ctx)
}

// Interval reports the enforced minimum interval (zero when disabled).
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
