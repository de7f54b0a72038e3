// Package ratelimit throttles sign-in and registration attempts with
// fixed-window counters kept in memory. Counts reset on restart, which is
// acceptable for a single-instance council site.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/councilhub/internal/app/system/clock"
	"github.com/dalemusser/councilhub/internal/app/system/normalize"
)

// sweepEvery bounds how many Allow calls pass between purges of expired keys.
const sweepEvery = 256

// Limiter counts hits per key in fixed windows. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	clock   clock.Clock
	limit   int
	window  time.Duration
	entries map[string]*entry
	calls   int
}

type entry struct {
	count int
	reset time.Time
}

// New returns a Limiter allowing limit hits per key in each window.
func New(limit int, window time.Duration) *Limiter {
	return NewWithClock(limit, window, clock.System{})
}

// NewWithClock is New with an explicit clock, for tests.
func NewWithClock(limit int, window time.Duration, clk clock.Clock) *Limiter {
	return &Limiter{
		clock:   clk,
		limit:   limit,
		window:  window,
		entries: make(map[string]*entry),
	}
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweep(now)
	}

	e, ok := l.entries[key]
	if !ok || !now.Before(e.reset) {
		l.entries[key] = &entry{count: 1, reset: now.Add(l.window)}
		return true
	}
	if e.count >= l.limit {
		return false
	}
	e.count++
	return true
}

// Remaining returns the hits left for key in its current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || !l.clock.Now().Before(e.reset) {
		return l.limit
	}
	if n := l.limit - e.count; n > 0 {
		return n
	}
	return 0
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

// Len reports how many keys are tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Limiter) sweep(now time.Time) {
	for k, e := range l.entries {
		if !now.Before(e.reset) {
			delete(l.entries, k)
		}
	}
}

// ClientIP returns the host part of RemoteAddr. The router runs chi's
// RealIP middleware first, so proxy headers are already applied.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LoginLimiter applies a per-IP and a per-account limit to sign-in.
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewLoginLimiter allows 10 attempts per IP per minute and 5 per account
// per 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewLoginLimiterWithConfig builds a LoginLimiter with custom limits.
func NewLoginLimiterWithConfig(ipLimit int, ipWindow time.Duration, emailLimit int, emailWindow time.Duration) *LoginLimiter {
	return &LoginLimiter{
		byIP:    New(ipLimit, ipWindow),
		byEmail: New(emailLimit, emailWindow),
	}
}

// Check records an attempt and returns false with a user-facing message
// once either limit is hit.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if !ll.byIP.Allow(ClientIP(r)) {
		return false, "Too many sign-in attempts. Please wait a minute before trying again."
	}
	if key := normalize.Email(email); key != "" && !ll.byEmail.Allow(key) {
		return false, "Too many sign-in attempts for this account. Please wait a few minutes."
	}
	return true, ""
}

// ResetEmail clears the account counter after a successful sign-in.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := normalize.Email(email); key != "" {
		ll.byEmail.Reset(key)
	}
}
