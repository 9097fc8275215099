package loyalty

import (
	"sync"
	"time"
)

// RateLimiter throttles manual operations per key. Kept behind an
// interface so deployments can back it with shared storage instead of
// process memory.
type RateLimiter interface {
	// CheckAndConsume reports whether the key may act now, and if so
	// consumes its slot for the given window.
	CheckAndConsume(key string, window time.Duration) bool
}

type memoryRateLimiter struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func NewMemoryRateLimiter() RateLimiter {
	return &memoryRateLimiter{last: make(map[string]time.Time)}
}

func (m *memoryRateLimiter) CheckAndConsume(key string, window time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if last, ok := m.last[key]; ok && now.Sub(last) < window {
		return false
	}
	m.last[key] = now
	return true
}
