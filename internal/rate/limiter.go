// Package rate implements fixed-window request limiting keyed by client IP or
// user id.
package rate

import (
	"sync"
	"time"
)

type Limiter interface {
	Allow(key string, limit int, window time.Duration) (bool, time.Duration)
}

// Policy is a limit per window, as configured for one route group.
type Policy struct {
	Limit  int
	Window time.Duration
}

func PerMinute(n int) Policy {
	return Policy{Limit: n, Window: time.Minute}
}

// Disabled reports whether the policy lets everything through.
func (p Policy) Disabled() bool {
	return p.Limit <= 0 || p.Window <= 0
}

// pruneThreshold is the bucket count above which expired buckets are swept.
const pruneThreshold = 4096

type MemoryLimiter struct {
	mu    sync.Mutex
	store map[string]*bucket
	now   func() time.Time
}

type bucket struct {
	count   int
	resetAt time.Time
	window  time.Duration
}

func NewMemory() *MemoryLimiter {
	return NewMemoryWithClock(time.Now)
}

func NewMemoryWithClock(now func() time.Time) *MemoryLimiter {
	return &MemoryLimiter{store: make(map[string]*bucket), now: now}
}

// Allow counts one hit for key. When the key is over limit it returns false
// and the time left until its window resets.
func (m *MemoryLimiter) Allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	b, ok := m.store[key]
	if !ok || !now.Before(b.resetAt) || b.window != window {
		if !ok && len(m.store) >= pruneThreshold {
			m.pruneLocked(now)
		}
		b = &bucket{resetAt: now.Add(window), window: window}
		m.store[key] = b
	}

	if b.count >= limit {
		return false, b.resetAt.Sub(now)
	}

	b.count++
	return true, b.resetAt.Sub(now)
}

// Len returns the number of tracked keys.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

func (m *MemoryLimiter) pruneLocked(now time.Time) {
	for k, b := range m.store {
		if !now.Before(b.resetAt) {
			delete(m.store, k)
		}
	}
}
