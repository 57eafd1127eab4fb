package auth

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter provides rate limiting functionality
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	// Remaining reports the requests key may still make and when its
	// allowance is fully restored.
	Remaining(ctx context.Context, key string) (int, time.Time, error)
}

// KeyedLimiter keeps one token bucket per key in process memory. Buckets
// idle for longer than ttl are dropped on a later call.
type KeyedLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*entry
	rate      rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var _ RateLimiter = (*KeyedLimiter)(nil)

// NewKeyedLimiter creates a limiter allowing requestsPerMinute per key with
// a burst of the same size.
func NewKeyedLimiter(requestsPerMinute int) *KeyedLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return &KeyedLimiter{
		limiters: make(map[string]*entry),
		rate:     rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:    requestsPerMinute,
		ttl:      15 * time.Minute,
		now:      time.Now,
	}
}

// Allow checks if a request is allowed
func (l *KeyedLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) > l.ttl {
		l.sweep(now)
	}
	e, ok := l.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1), nil
}

// Remaining reads the bucket without taking a token. Unknown keys have the
// full burst available now.
func (l *KeyedLimiter) Remaining(_ context.Context, key string) (int, time.Time, error) {
	now := l.now()

	l.mu.Lock()
	e, ok := l.limiters[key]
	l.mu.Unlock()
	if !ok {
		return l.burst, now, nil
	}

	tokens := e.limiter.TokensAt(now)
	remaining := max(int(math.Floor(tokens+1e-9)), 0)
	refill := (float64(l.burst) - tokens) / float64(l.rate)
	return remaining, now.Add(time.Duration(refill * float64(time.Second))), nil
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// sweep must be called with mu held
func (l *KeyedLimiter) sweep(now time.Time) {
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > l.ttl {
			delete(l.limiters, k)
		}
	}
	l.lastSweep = now
}
