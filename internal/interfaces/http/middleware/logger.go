package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"solbol.backend/pkg/logger"
)

// LoggerMiddleware logs HTTP requests using the structured logger. Paths in
// skip (health checks, scrapes) are not logged.
func LoggerMiddleware(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if skipped[path] {
			return
		}
		if raw != "" {
			path = path + "?" + raw
		}

		// RequestIDMiddleware has put the request id on the context
		logger.LogRequest(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}
