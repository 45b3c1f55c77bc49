// Package ratelimit throttles repeated attempts per key with a token bucket.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedRateLimiter keeps one token bucket per key, created on first use.
type KeyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// New creates a keyed limiter refilling each key's bucket at rps tokens per
// second up to burst.
func New(rps float64, burst int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow spends one token for key and reports whether one was available.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return krl.limiter(key).AllowN(krl.now(), 1)
}

// RetryAfter reports how long key must wait for its next token.
func (krl *KeyedRateLimiter) RetryAfter(key string) time.Duration {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	now := krl.now()
	r := krl.limiter(key).ReserveN(now, 1)
	defer r.CancelAt(now)
	return r.DelayFrom(now)
}

// Forget drops key's bucket so its next attempt starts with a full burst.
func (krl *KeyedRateLimiter) Forget(key string) {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	delete(krl.limiters, key)
}

// Len returns the number of tracked keys.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.limiters)
}

// limiter returns the bucket for key. Callers hold krl.mu.
func (krl *KeyedRateLimiter) limiter(key string) *rate.Limiter {
	l, ok := krl.limiters[key]
	if !ok {
		l = rate.NewLimiter(krl.limit, krl.burst)
		krl.limiters[key] = l
	}
	return l
}
