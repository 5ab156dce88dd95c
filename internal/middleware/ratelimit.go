package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cyphera/cyphera-relayer/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitedCode is the JSON-RPC error code returned to throttled clients.
const RateLimitedCode = -32005

// unthrottledPaths are probes and scrapes that never count against a client.
var unthrottledPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// RateLimiter holds per client token buckets.
type RateLimiter struct {
	// limiters stores rate limiters per client IP
	limiters sync.Map
	rate     int
	burst    int
	// idleTTL is how long an unused limiter is kept
	idleTTL         time.Duration
	cleanupInterval time.Duration
}

type limiterEntry struct {
	limiter *rate.Limiter
	mu      sync.Mutex
	last    time.Time
}

func (e *limiterEntry) touch(now time.Time) {
	e.mu.Lock()
	e.last = now
	e.mu.Unlock()
}

func (e *limiterEntry) idleSince(now time.Time) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return now.Sub(e.last)
}

// NewRateLimiter creates a limiter allowing requestsPerSecond with the given
// burst for each client. Idle limiters are evicted until ctx is done.
func NewRateLimiter(ctx context.Context, requestsPerSecond, burst int) *RateLimiter {
	rl := &RateLimiter{
		rate:            requestsPerSecond,
		burst:           burst,
		idleTTL:         10 * time.Minute,
		cleanupInterval: 5 * time.Minute,
	}

	go rl.cleanup(ctx)

	return rl
}

func (rl *RateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.evictIdle(now)
		}
	}
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.limiters.Range(func(key, value interface{}) bool {
		if entry, ok := value.(*limiterEntry); ok && entry.idleSince(now) > rl.idleTTL {
			rl.limiters.Delete(key)
		}
		return true
	})
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	now := time.Now()
	if val, ok := rl.limiters.Load(key); ok {
		entry := val.(*limiterEntry)
		entry.touch(now)
		return entry.limiter
	}

	entry := &limiterEntry{
		limiter: rate.NewLimiter(rate.Limit(rl.rate), rl.burst),
		last:    now,
	}
	actual, _ := rl.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry).limiter
}

// getClientIdentifier keys clients by IP. Forwarding headers count only when
// the engine trusts the peer they came from.
func getClientIdentifier(c *gin.Context) string {
	clientIP := c.ClientIP()
	if clientIP == "" {
		clientIP = "unknown"
	}
	return fmt.Sprintf("ip:%s", clientIP)
}

// Middleware returns a Gin middleware handler for rate limiting. Throttled
// requests get HTTP 429 with a JSON-RPC error body.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if unthrottledPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		clientID := getClientIdentifier(c)
		limiter := rl.getLimiter(clientID)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.rate))

		if !limiter.Allow() {
			logger.For(logger.ComponentMiddleware).Warn("Rate limit exceeded",
				zap.String("correlation_id", GetCorrelationID(c)),
				zap.String("client_id", clientID),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"jsonrpc": "2.0",
				"id":      nil,
				"error": gin.H{
					"code":    RateLimitedCode,
					"message": "too many requests, please try again later",
				},
			})
			return
		}

		remaining := int(limiter.Tokens())
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		c.Next()
	}
}
