package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window request counter. Each key keeps the
// timestamps of its allowed calls within the trailing window; a call
// that would exceed the limit is rejected and does not consume a slot.
//
// Timestamp slices are adequate at volunteer-pool scale (tens to low
// hundreds of clients). The contract is drop-in compatible with a token
// bucket if that ever changes.
type Limiter struct {
	mu   sync.Mutex
	keys map[string][]int64

	now func() time.Time
}

// New creates an empty limiter.
func New() *Limiter {
	return &Limiter{
		keys: make(map[string][]int64),
		now:  time.Now,
	}
}

// Allow reports whether a call under key fits within limit calls per
// window. An allowed call is recorded; a rejected call is not.
// A non-positive limit disables limiting for the key.
func (l *Limiter) Allow(key string, limit int, window time.Duration) bool {
	if limit <= 0 {
		return true
	}

	ts := l.now().UnixNano()
	cutoff := ts - window.Nanoseconds()

	l.mu.Lock()
	defer l.mu.Unlock()

	history := trimCutoff(l.keys[key], cutoff)
	if len(history) >= limit {
		l.keys[key] = history
		return false
	}

	l.keys[key] = append(history, ts)
	return true
}

// Prune drops keys whose entire history has aged past window. Called
// periodically by a background job so idle keys do not accumulate.
func (l *Limiter) Prune(window time.Duration) int {
	cutoff := l.now().UnixNano() - window.Nanoseconds()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, history := range l.keys {
		history = trimCutoff(history, cutoff)
		if len(history) == 0 {
			delete(l.keys, key)
			removed++
			continue
		}
		l.keys[key] = history
	}
	return removed
}

// Keys returns the number of tracked keys.
func (l *Limiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

func trimCutoff(in []int64, cutoff int64) []int64 {
	if len(in) == 0 {
		return in
	}
	i := 0
	for i < len(in) && in[i] <= cutoff {
		i++
	}
	if i == 0 {
		return in
	}
	out := make([]int64, len(in)-i)
	copy(out, in[i:])
	return out
}
