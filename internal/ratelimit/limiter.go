// Package ratelimit bounds validation requests per client using an in-memory
// sliding window. The window is timestamp-based to prevent boundary bursts
// that fixed buckets allow.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result describes the outcome of one admission check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter admits or rejects a request for a key.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

type slidingWindow struct {
	timestamps []time.Time
}

// InMemoryLimiter is a per-process sliding window limiter. Not distributed;
// each replica enforces its own budget.
type InMemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*slidingWindow
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewInMemoryLimiter(limit int, window time.Duration) *InMemoryLimiter {
	return &InMemoryLimiter{
		buckets: make(map[string]*slidingWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

func (l *InMemoryLimiter) Allow(_ context.Context, key string) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket := l.buckets[key]
	if bucket == nil {
		bucket = &slidingWindow{}
		l.buckets[key] = bucket
	}
	bucket.cleanup(now.Add(-l.window))

	count := len(bucket.timestamps)
	if count >= l.limit {
		return &Result{
			Allowed:   false,
			Limit:     l.limit,
			Remaining: 0,
			ResetAt:   bucket.timestamps[0].Add(l.window),
		}, nil
	}

	bucket.timestamps = append(bucket.timestamps, now)
	return &Result{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - count - 1,
		ResetAt:   bucket.timestamps[0].Add(l.window),
	}, nil
}

// Reset clears the window for a key.
func (l *InMemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
	return nil
}

func (w *slidingWindow) cleanup(cutoff time.Time) {
	i := 0
	for i < len(w.timestamps) && !w.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.timestamps = w.timestamps[i:]
	}
}
