package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// EndpointRateLimiter holds per-route limits on top of the global one. Routes
// are matched by their registered pattern, so /report/delays?x=1 and
// /report/delays share a budget.
type EndpointRateLimiter struct {
	routes map[string]*RateLimiter
}

func NewEndpointRateLimiter() *EndpointRateLimiter {
	return &EndpointRateLimiter{routes: make(map[string]*RateLimiter)}
}

// AddEndpoint must be called before Middleware is installed.
func (e *EndpointRateLimiter) AddEndpoint(route string, limit int, period time.Duration) {
	e.routes[route] = NewRateLimiter(limit, period)
}

func (e *EndpointRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rl, ok := e.routes[c.FullPath()]
		if ok && !rl.admit(c, c.ClientIP(), "rate limit exceeded for "+c.FullPath()) {
			return
		}
		c.Next()
	}
}
