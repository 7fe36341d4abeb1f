package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window counter per key. A limit of zero or less
// disables it.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	windows   map[string]*counter
	lastSweep time.Time
}

type counter struct {
	start time.Time
	count int
}

func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	if period <= 0 {
		period = time.Minute
	}
	return &RateLimiter{
		limit:   limit,
		window:  period,
		now:     time.Now,
		windows: make(map[string]*counter),
	}
}

// Allow records one request for key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(key string) bool {
	allowed, _ := rl.take(key)
	return allowed
}

func (rl *RateLimiter) take(key string) (bool, int) {
	if rl.limit <= 0 {
		return true, -1
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.window {
		w = &counter{start: now}
		rl.windows[key] = w
	}

	if w.count >= rl.limit {
		return false, 0
	}
	w.count++
	return true, rl.limit - w.count
}

// sweep drops expired windows at most once per period.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.window {
			delete(rl.windows, key)
		}
	}
	rl.lastSweep = now
}

func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.admit(c, c.ClientIP(), "rate limit exceeded") {
			return
		}
		c.Next()
	}
}

// admit takes one request for key, sets the rate limit headers and aborts
// with 429 when the window is exhausted.
func (rl *RateLimiter) admit(c *gin.Context, key, msg string) bool {
	allowed, remaining := rl.take(key)
	if remaining >= 0 {
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	}
	if allowed {
		return true
	}

	c.Header("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       msg,
		"retry_after": rl.window.Seconds(),
	})
	return false
}
