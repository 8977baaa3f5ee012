package api

import (
	"context"  // Ping deadline
	"net/http" // HTTP status codes
	"time"     // Timeouts

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Pinger is anything that can report its own health
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the store is reachable
func HealthHandler(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			logrus.WithField("error", err.Error()).Warn("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
