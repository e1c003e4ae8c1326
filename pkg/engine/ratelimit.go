package engine

import (
	"time"

	"golang.org/x/time/rate"
)

// minScrollInterval is the shortest spacing between two emitted scroll
// batches on one axis. XTest synthesis has real per-call latency; bursts
// queue up and replay out of order with live input, so anything faster is
// discarded rather than deferred.
const minScrollInterval = 30 * time.Millisecond

// scrollLimiter gates scroll emission to at most one batch per
// minScrollInterval. It is a thin wrapper over a token bucket with burst 1;
// timestamps are passed in explicitly so tests can drive the clock.
type scrollLimiter struct {
	lim *rate.Limiter
}

func newScrollLimiter() *scrollLimiter {
	return &scrollLimiter{lim: rate.NewLimiter(rate.Every(minScrollInterval), 1)}
}

// Allow reports whether a batch may be emitted at now. A denied call
// consumes nothing; the caller is expected to discard the motion that
// triggered it.
func (l *scrollLimiter) Allow(now time.Time) bool {
	return l.lim.AllowN(now, 1)
}
