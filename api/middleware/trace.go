package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/OldStager01/getaround-pricing/internal/logger"
	"github.com/OldStager01/getaround-pricing/pkg/models"
)

const (
	TraceIDHeader = "X-Trace-ID"
	traceIDKey    = "trace_id"
	maxTraceIDLen = 128
)

// TraceID reuses the caller's X-Trace-ID or generates one, echoes it back and
// stores it on both the gin context and the request context.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" || len(traceID) > maxTraceIDLen {
			traceID = models.NewUUID()
		}

		c.Set(traceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))

		c.Next()
	}
}

func GetTraceID(c *gin.Context) string {
	return c.GetString(traceIDKey)
}
