package geocode

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Limiter spaces out geocoding calls so that successive call starts are at
// least one interval apart. The first call never waits.
type Limiter struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// NewLimiter creates a limiter for one run. A non-positive interval
// disables limiting.
func NewLimiter(interval time.Duration) *Limiter {
	if interval <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Interval returns the configured minimum gap.
func (l *Limiter) Interval() time.Duration { return l.interval }

// Wait blocks until the next call may start or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "geocode: rate limit wait")
	}
	return nil
}
