package middleware

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	honeybadger "github.com/honeybadger-io/honeybadger-go"
	"github.com/sirupsen/logrus"
)

// HoneybadgerMiddleware sends error notifications to Honeybadger.
// On panic, it notifies Honeybadger and re-panics to allow gin.Recovery to handle the response.
func HoneybadgerMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	apiKey := os.Getenv("HONEYBADGER_API_KEY")
	if apiKey == "" {
		logger.Info("Honeybadger is not active. To enable error reporting, set the HONEYBADGER_API_KEY environment variable.")
		return func(c *gin.Context) {
			c.Next()
		}
	}

	honeybadger.Configure(honeybadger.Configuration{
		APIKey: apiKey,
		Env:    os.Getenv("GO_ENV"),
	})

	logger.Info("Honeybadger error reporting is enabled.")

	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				// Notify Honeybadger with stacktrace, then re-panic
				honeybadger.Notify(fmt.Sprintf("Panic: %s %s", c.Request.Method, c.Request.URL.Path),
					c.Request, honeybadger.Context{"stack": string(debug.Stack())}, honeybadger.Tags{"panic", "http"})
				logger.Error("Recovered from panic, notified Honeybadger: ", rec)
				panic(rec) // propagate panic to let gin.Recovery handle it
			}
		}()

		c.Next()

		status := c.Writer.Status()
		if status >= 500 {
			honeybadger.Notify(fmt.Sprintf("Error: HTTP %d: %s %s", status, c.Request.Method, c.Request.URL.Path),
				c.Request, honeybadger.Tags{"5XX", "http"})
			logger.Warnf("Honeybadger reported HTTP %d for %s %s", status, c.Request.Method, c.Request.URL.Path)
		}
	}
}
