package authapi

import (
	"sync"
	"time"
)

// loginLimiter throttles login attempts per client IP with a sliding
// window. State lives in process memory; in a multi-replica deployment
// each replica enforces the limit independently.
type loginLimiter struct {
	mu     sync.Mutex
	events map[string][]time.Time
	limit  int
	window time.Duration

	lastPrune time.Time
}

func newLoginLimiter(limit int, window time.Duration) *loginLimiter {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &loginLimiter{
		events: make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
}

// Allow reports whether an attempt from key at time "now" is permitted,
// and the wait before the next permitted attempt when it is not.
func (l *loginLimiter) Allow(key string, now time.Time) (bool, time.Duration) {
	if key == "" {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)

	cut := now.Add(-l.window)
	dst := l.events[key][:0]
	for _, t := range l.events[key] {
		if t.After(cut) {
			dst = append(dst, t)
		}
	}

	if len(dst) >= l.limit {
		l.events[key] = dst
		return false, dst[0].Sub(cut)
	}

	l.events[key] = append(dst, now)
	return true, 0
}

// pruneLocked drops idle keys so the map does not grow without bound.
func (l *loginLimiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < l.window {
		return
	}
	l.lastPrune = now

	cut := now.Add(-l.window)
	for key, times := range l.events {
		live := times[:0]
		for _, t := range times {
			if t.After(cut) {
				live = append(live, t)
			}
		}
		if len(live) == 0 {
			delete(l.events, key)
			continue
		}
		l.events[key] = live
	}
}
