// Package ratelimit gates how often a sender may post.
package ratelimit

import (
	"time"
)

// DefaultCooldown is the minimum gap between two allowed sends.
const DefaultCooldown = 2 * time.Second

// Limiter enforces a per-key cooldown. The window is measured from the
// last allowed send; denied attempts leave the window untouched, so
// hammering the gate never pushes it further away. Callers pass the
// current time, which keeps the limiter deterministic under test.
type Limiter struct {
	cooldown time.Duration
	last     map[string]time.Time
}

func NewLimiter(cooldown time.Duration) *Limiter {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Limiter{
		cooldown: cooldown,
		last:     make(map[string]time.Time),
	}
}

// Allow reports whether a send at the given instant is permitted and,
// only if it is, starts a new cooldown window.
func (l *Limiter) Allow(key string, now time.Time) bool {
	if last, ok := l.last[key]; ok && now.Sub(last) < l.cooldown {
		return false
	}
	l.last[key] = now
	return true
}

// Remaining returns how long until the next allowed send for the key.
func (l *Limiter) Remaining(key string, now time.Time) time.Duration {
	last, ok := l.last[key]
	if !ok {
		return 0
	}
	if wait := l.cooldown - now.Sub(last); wait > 0 {
		return wait
	}
	return 0
}

// Reset forgets the key's window.
func (l *Limiter) Reset(key string) {
	delete(l.last, key)
}
