package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/curamed/chartcache/internal/observability"
)

// HTTPMetrics records one counter increment per completed request, labeled
// by the route template rather than the raw path to keep cardinality down.
func HTTPMetrics(metrics observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequest(c.Request.Method, route, c.Writer.Status())
	}
}
