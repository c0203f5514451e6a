// Package middleware holds the Gin middleware.
package middleware

import (
	"time"

	"pdf-rag-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one structured line per request. Bodies are not logged;
// upload and chat payloads are large and uninteresting.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
	}
}
