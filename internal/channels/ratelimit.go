package channels

import (
	"sync"

	"golang.org/x/time/rate"
)

const (
	// maxTrackedKeys caps tracked rate-limit keys to bound memory under key
	// rotation (e.g. an attacker cycling sender IDs).
	maxTrackedKeys = 4096

	// Allow a burst of 30 messages, refilling at 0.5/s (one every two
	// seconds) — generous for normal chat back-and-forth, tight enough to
	// blunt a flood from one sender.
	ratePerSecond = 0.5
	rateBurst     = 30
)

// PerSenderLimiter rate-limits inbound messages per sender key, so one noisy
// or malicious sender can't starve the agent loop for everyone else.
type PerSenderLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewPerSenderLimiter() *PerSenderLimiter {
	return &PerSenderLimiter{limiters: make(map[string]*rate.Limiter)}
}

// Allow reports whether a message from key may proceed right now.
func (r *PerSenderLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[key]
	if !ok {
		if len(r.limiters) >= maxTrackedKeys {
			for k := range r.limiters {
				delete(r.limiters, k)
				break
			}
		}
		l = rate.NewLimiter(rate.Limit(ratePerSecond), rateBurst)
		r.limiters[key] = l
	}
	return l.Allow()
}
