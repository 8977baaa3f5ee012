package middleware

import (
	"net/http" // HTTP status codes
	"sync"     // Guards the visitor map
	"time"     // Idle tracking

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/time/rate"     // Token bucket limiter
)

// RateLimiter throttles requests per client IP
type RateLimiter struct {
	mu       sync.Mutex          // Guards limiters
	limiters map[string]*visitor // One limiter per client IP
	rate     rate.Limit          // Allowed requests per second
	burst    int                 // Bucket size
	idle     time.Duration       // Quiet period after which a client is forgotten
}

// visitor is the limiter state of one client
type visitor struct {
	limiter  *rate.Limiter // Token bucket for this client
	lastSeen time.Time     // Last request time
}

// NewRateLimiter allows perSecond requests per client with the given burst
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*visitor),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		idle:     10 * time.Minute,
	}
}

// limiter returns the limiter of key, creating it on first use
func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.limiters[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)} // New client
		rl.limiters[key] = v
	}
	v.lastSeen = now // Mark activity

	// Drop clients that have been quiet for a while
	for k, other := range rl.limiters {
		if now.Sub(other.lastSeen) > rl.idle {
			delete(rl.limiters, k)
		}
	}
	return v.limiter
}

// Handler rejects requests over the limit with 429
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() // Limit per client address
		// Reject when the client's bucket is empty
		if !rl.limiter(key).Allow() {
			logrus.WithFields(logrus.Fields{
				"client": key,
				"path":   c.FullPath(),
			}).Warn("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next() // Within the limit, proceed
	}
}
