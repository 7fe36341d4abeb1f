package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/getaround-pricing/internal/metrics"
)

const unmatchedRoute = "unmatched"

// Metrics records request counts and latency per route pattern, so path
// parameters do not blow up label cardinality.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
