package middleware

import (
	"marketplace/internal/metrics" // Request metrics
	"strconv"                      // Status code labels
	"time"                         // Request timing

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Request ids
	"github.com/sirupsen/logrus" // Logging library
)

// RequestIDHeader carries the request id in and out
const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id, logs it and records metrics
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now() // Start timing the request

		requestID := c.GetHeader(RequestIDHeader) // Reuse the caller's id when given
		if requestID == "" {
			requestID = uuid.NewString() // Otherwise generate one
		}
		c.Set("requestID", requestID)        // Expose the id to handlers
		c.Header(RequestIDHeader, requestID) // Echo the id to the client

		c.Next() // Process the request

		path := c.FullPath() // Route pattern keeps metric labels bounded
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()   // Response status code
		duration := time.Since(start) // Time spent serving
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(status), duration)

		entry := logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"duration":   duration.String(),
			"client":     c.ClientIP(),
		})
		// Server errors are logged at error level
		if status >= 500 {
			entry.Error("Request failed")
		} else {
			entry.Info("Request served")
		}
	}
}
