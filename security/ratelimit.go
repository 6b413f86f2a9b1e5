package security

import (
	"sync"
	"time"
)

// Rate-limit thresholds and windows. Connection attempts are counted in
// 1-minute buckets, authentication failures in 5-minute buckets.
const (
	ConnectionLimit  = 10
	ConnectionWindow = time.Minute

	AuthFailureLimit  = 3
	AuthFailureWindow = 5 * time.Minute

	SweepInterval = 5 * time.Minute
)

type bucket struct {
	window int64 // bucket index: unix seconds / window seconds
	count  int
}

// RateLimiter bounds abusive connection volume and brute-force credential
// guessing with fixed-window counters keyed by client address. It is an
// injected component owned by the server instance, safe for concurrent use.
type RateLimiter struct {
	mu          sync.Mutex
	connections map[string]*bucket
	authFails   map[string]*bucket

	// now is swappable so tests can advance the window without sleeping.
	now func() time.Time
}

// NewRateLimiter creates an empty limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		connections: make(map[string]*bucket),
		authFails:   make(map[string]*bucket),
		now:         time.Now,
	}
}

// SetClock replaces the limiter's time source. Tests pin it to a fixed
// instant so counters never straddle a window boundary mid-run.
func (rl *RateLimiter) SetClock(now func() time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.now = now
}

func windowIndex(t time.Time, window time.Duration) int64 {
	return t.Unix() / int64(window/time.Second)
}

// touch returns the live bucket for addr, resetting it when the window has
// rolled over. Caller holds mu.
func touch(m map[string]*bucket, addr string, idx int64) *bucket {
	b, ok := m[addr]
	if !ok || b.window != idx {
		b = &bucket{window: idx}
		m[addr] = b
	}
	return b
}

// AllowConnection increments the connection counter for addr and reports
// whether the attempt is within the per-minute threshold. The rejected
// connection must be refused before any session state is created.
func (rl *RateLimiter) AllowConnection(addr string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := touch(rl.connections, addr, windowIndex(rl.now(), ConnectionWindow))
	b.count++
	return b.count <= ConnectionLimit
}

// AllowAuthAttempt reports whether addr may attempt another login. It checks
// the failure counter without incrementing; recording happens separately via
// RecordAuthFailure once the attempt actually fails.
func (rl *RateLimiter) AllowAuthAttempt(addr string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	idx := windowIndex(rl.now(), AuthFailureWindow)
	b, ok := rl.authFails[addr]
	if !ok || b.window != idx {
		return true
	}
	return b.count < AuthFailureLimit
}

// RecordAuthFailure counts one failed login for addr in the current window.
func (rl *RateLimiter) RecordAuthFailure(addr string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := touch(rl.authFails, addr, windowIndex(rl.now(), AuthFailureWindow))
	b.count++
}

// Sweep drops buckets whose window has fully elapsed, bounding memory.
// Safe to call with zero entries; invoked on a fixed period by the server.
func (rl *RateLimiter) Sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	connIdx := windowIndex(rl.now(), ConnectionWindow)
	for addr, b := range rl.connections {
		if b.window < connIdx {
			delete(rl.connections, addr)
		}
	}
	authIdx := windowIndex(rl.now(), AuthFailureWindow)
	for addr, b := range rl.authFails {
		if b.window < authIdx {
			delete(rl.authFails, addr)
		}
	}
}
