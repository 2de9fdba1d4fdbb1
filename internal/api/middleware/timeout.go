package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestTimeout bounds every local API request with a context deadline.
// Handlers are not killed; the deadline travels down to the repository
// loaders and the remote client, which honor ctx.Done() and unwind with
// an unavailable error. A zero or negative duration disables the bound.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		// A handler that ran out of time without writing anything gets a
		// 504; once a response has started the status cannot change.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
				"error": "request timed out",
			})
		}
	}
}
