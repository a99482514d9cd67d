// Package ratelimit provides per-key token buckets for inbound request throttling
// and a throttle-aware wait for upstream limiters.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrThrottled means a local limiter refused the call before it reached the upstream.
var ErrThrottled = errors.New("throttled by local rate limit")

// Wait blocks on l until a token is available. When the token cannot arrive
// before ctx's deadline it returns ErrThrottled instead of waiting it out.
func Wait(ctx context.Context, l *rate.Limiter) error {
	if err := l.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrThrottled, err)
	}
	return nil
}

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter keeps one bucket per key (client address, API key).
type Limiter struct {
	mu  sync.Mutex
	m   map[string]*entry
	now func() time.Time
}

func New() *Limiter { return NewWithClock(time.Now) }

// NewWithClock creates a limiter driven by now.
func NewWithClock(now func() time.Time) *Limiter {
	return &Limiter{m: make(map[string]*entry), now: now}
}

// Allow returns true if one token can be consumed for key. The bucket for a
// key is sized on first use.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := l.now()
	l.mu.Lock()
	e, ok := l.m[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(rate.Limit(refillPerSec), int(capacity))}
		l.m[key] = e
	}
	e.seen = now
	l.mu.Unlock()
	return e.lim.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than idle and returns how many were removed.
func (l *Limiter) Sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, e := range l.m {
		if e.seen.Before(cutoff) {
			delete(l.m, k)
			n++
		}
	}
	return n
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
