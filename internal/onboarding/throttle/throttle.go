// Package throttle rate-limits the public onboarding endpoints so token
// values cannot be guessed by brute force.
package throttle

import (
	"context"
	"sync"
	"time"
)

// Throttle answers whether a caller identified by key may proceed.
type Throttle interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Memory is a fixed-window in-process throttle, the fallback when redis is
// not configured. Windows are pruned lazily on access.
type Memory struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	windowStart time.Time
	count       int
}

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	b, ok := m.buckets[key]
	if !ok || now.Sub(b.windowStart) >= m.window {
		m.buckets[key] = &bucket{windowStart: now, count: 1}
		return true, nil
	}
	if b.count >= m.limit {
		return false, nil
	}
	b.count++
	return true, nil
}
