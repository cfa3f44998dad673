package middleware

import (
	"strconv"
	"time"

	"eduvista/internal/metrics"

	"github.com/gin-gonic/gin"
)

// PrometheusMiddleware records request count and latency per route template.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
