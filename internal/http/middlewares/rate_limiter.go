package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window in-process limiter. Good enough for a
// single API instance; swap the map for redis if we ever scale out.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	buckets map[string]*bucket
}

type bucket struct {
	count int
	reset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
	}
}

// allow counts a hit against key and reports whether it fits the window.
// retryAfter is whole seconds until the window rolls over.
func (rl *RateLimiter) allow(key string) (ok bool, retryAfter int) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, found := rl.buckets[key]

	if !found || now.After(b.reset) {
		rl.buckets[key] = &bucket{count: 1, reset: now.Add(rl.window)}
		return true, 0
	}

	if b.count >= rl.limit {
		secs := int(time.Until(b.reset).Seconds())

		if secs < 0 {
			secs = 0
		}

		return false, secs
	}

	b.count++

	return true, 0
}

// RateLimiterMiddleware enforces the limit per derived key.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		ok, retryAfter := rl.allow(key)

		if !ok {
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				errorEnvelope(c, "rate_limited", "Too many requests. Please try again shortly."))

			return
		}

		c.Next()
	}
}

// KeyByIP suits unauthenticated endpoints like login and signup.
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// KeyByUserOrIP buckets authenticated traffic per account, falling back
// to IP before the auth middleware has run.
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok && id != "" {
		return "user:" + id
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
