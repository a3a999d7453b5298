// file: internal/server/middleware/ratelimit.go
// version: 2.0.0
// guid: 1331705a-85cb-4158-92f5-5ce203d8a0e7

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter is a lightweight per-IP token bucket limiter.
type IPRateLimiter struct {
	mu             sync.Mutex
	entries        map[string]*limiterEntry
	requestsPerMin int
	burst          int
	idleTTL        time.Duration
	lastSweep      time.Time
	now            func() time.Time
	exempt         map[string]bool
}

// NewIPRateLimiter allows requestsPerMinute per client IP with the given
// burst. Paths passed in exempt (health probes, the SSE stream) bypass it.
func NewIPRateLimiter(requestsPerMinute int, burst int, exempt ...string) *IPRateLimiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	r := &IPRateLimiter{
		entries:        make(map[string]*limiterEntry),
		requestsPerMin: requestsPerMinute,
		burst:          burst,
		idleTTL:        15 * time.Minute,
		now:            time.Now,
		exempt:         make(map[string]bool, len(exempt)),
	}
	for _, p := range exempt {
		r.exempt[p] = true
	}
	return r
}

func (r *IPRateLimiter) limiterForIP(ip string) *rate.Limiter {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Idle buckets are swept at most once per TTL.
	if now.Sub(r.lastSweep) > r.idleTTL {
		for key, entry := range r.entries {
			if now.Sub(entry.lastSeen) > r.idleTTL {
				delete(r.entries, key)
			}
		}
		r.lastSweep = now
	}

	entry, ok := r.entries[ip]
	if !ok {
		perSecond := float64(r.requestsPerMin) / 60.0
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(perSecond), r.burst),
		}
		r.entries[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// Len returns the number of tracked client buckets.
func (r *IPRateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Middleware returns a Gin middleware that enforces the configured limit.
func (r *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.exempt[c.Request.URL.Path] {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		lim := r.limiterForIP(ip)
		if !lim.Allow() {
			retry := math.Ceil(60.0 / float64(r.requestsPerMin))
			c.Header("Retry-After", strconv.Itoa(int(retry)))
			abortJSON(c, http.StatusTooManyRequests, "rate limit exceeded, please retry shortly", "RATE_LIMITED")
			return
		}
		c.Next()
	}
}

// abortJSON stops the chain with the API's error body shape.
func abortJSON(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":  message,
		"code":   code,
		"status": status,
	})
}
