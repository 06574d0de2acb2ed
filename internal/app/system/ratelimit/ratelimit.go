// Package ratelimit throttles sign-in attempts with token buckets.
package ratelimit

import (
	"net/http"
	"strings"
	"sync"
	"time"

	waffleratelimit "github.com/dalemusser/waffle/pantry/ratelimit"
	"golang.org/x/time/rate"
)

// Buckets keeps one token bucket per key. A bucket holds burst tokens and
// refills completely over period. Keys can be forgotten with Reset, which
// waffle's KeyLimiter does not offer.
type Buckets struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	period  time.Duration
	now     func() time.Time
	lastGC  time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewBuckets allows burst hits per key, regaining one every period/burst.
func NewBuckets(burst int, period time.Duration) *Buckets {
	return &Buckets{
		buckets: make(map[string]*bucket),
		limit:   rate.Every(period / time.Duration(burst)),
		burst:   burst,
		period:  period,
		now:     time.Now,
	}
}

// Allow takes a token for key and reports whether one was available.
func (b *Buckets) Allow(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.gc(now)

	bk, ok := b.buckets[key]
	if !ok {
		bk = &bucket{lim: rate.NewLimiter(b.limit, b.burst)}
		b.buckets[key] = bk
	}
	bk.seen = now
	return bk.lim.AllowN(now, 1)
}

// Reset forgets key, so its next hit starts with a full bucket.
func (b *Buckets) Reset(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.buckets, key)
}

// gc drops keys idle for a whole period; their buckets are full again.
// Callers hold b.mu.
func (b *Buckets) gc(now time.Time) {
	if now.Sub(b.lastGC) < b.period {
		return
	}
	b.lastGC = now
	for key, bk := range b.buckets {
		if now.Sub(bk.seen) >= b.period {
			delete(b.buckets, key)
		}
	}
}

// ClientIP extracts the client IP, preferring X-Forwarded-For and
// X-Real-IP over RemoteAddr.
func ClientIP(r *http.Request) string {
	return strings.TrimSpace(waffleratelimit.IPKeyFunc(r))
}

// SignInLimiter applies one limit per client IP and a stricter one per
// email address.
type SignInLimiter struct {
	ip    *waffleratelimit.KeyLimiter
	email *Buckets
}

// Default sign-in limits.
const (
	DefaultSignInLimit  = 10
	DefaultSignInWindow = time.Minute
)

// NewSignInLimiter allows bursts of limit attempts per IP, refilling over
// window, and half as many (at least one) per email address refilling over
// five windows.
func NewSignInLimiter(limit int, window time.Duration) *SignInLimiter {
	if limit <= 0 {
		limit = DefaultSignInLimit
	}
	if window <= 0 {
		window = DefaultSignInWindow
	}
	perEmail := limit / 2
	if perEmail < 1 {
		perEmail = 1
	}
	return &SignInLimiter{
		ip:    waffleratelimit.NewKeyLimiter(float64(limit)/window.Seconds(), limit, 10*window),
		email: NewBuckets(perEmail, 5*window),
	}
}

// Check records an attempt. It returns false with a user-facing reason when
// the attempt is throttled.
func (s *SignInLimiter) Check(r *http.Request, email string) (bool, string) {
	if !s.ip.Allow(ClientIP(r)) {
		return false, "Too many sign-in attempts. Please wait a minute before trying again."
	}
	if key := emailKey(email); key != "" && !s.email.Allow(key) {
		return false, "Too many sign-in attempts for this account. Please wait a few minutes."
	}
	return true, ""
}

// Succeeded clears the per-email count after a successful sign-in.
func (s *SignInLimiter) Succeeded(email string) {
	if key := emailKey(email); key != "" {
		s.email.Reset(key)
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
