package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ──────────────────────────────────────────────────────────────────────
// Token Bucket Rate Limiter
//
// --serve exposes two very differently-shaped endpoints: /runs/latest
// returns one small fixed JSON body, while /reports/:category streams a
// CSV that can run to the size of the whole matched dataset. A single
// per-IP budget shared across both would let a client's one big
// copy_trades.csv download starve its own /runs/latest polling, so
// reportLimiter keys its buckets by "ip|category" instead of bare IP —
// each category earns its own budget, and a client exhausting one
// category's budget can still read the other two.
//
// A background goroutine cleans up buckets idle for more than
// cleanupIdleDuration to prevent unbounded memory growth from transient IPs.
// ──────────────────────────────────────────────────────────────────────

const cleanupIdleDuration = 10 * time.Minute

type bucket struct {
	tokens   float64
	lastSeen time.Time
	mu       sync.Mutex
}

// RateLimiter holds per-key bucket state. The key is caller-defined: bare
// client IP for a whole-route budget, or "ip|category" for a
// per-report-category budget.
type RateLimiter struct {
	rate    float64 // tokens added per second
	burst   float64 // max bucket capacity
	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewRateLimiter creates a rate limiter allowing ratePerMin requests per
// minute per key, with a burst capacity of burst requests.
func NewRateLimiter(ratePerMin, burst int) *RateLimiter {
	rl := &RateLimiter{
		rate:    float64(ratePerMin) / 60.0,
		burst:   float64(burst),
		buckets: make(map[string]*bucket),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.burst}
		rl.buckets[key] = b
	}
	rl.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastSeen).Seconds()
	b.tokens += elapsed * rl.rate
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.lastSeen = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true, 0
	}

	retryAfter := time.Duration((1.0-b.tokens)/rl.rate*1000) * time.Millisecond
	return false, retryAfter
}

// Middleware returns a Gin handler enforcing the limit, keyed by client IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return rl.MiddlewareKeyedBy(func(c *gin.Context) string { return c.ClientIP() })
}

// MiddlewareKeyedBy returns a Gin handler enforcing the limit against a
// bucket key derived from the request by keyFn, rather than bare IP.
func (rl *RateLimiter) MiddlewareKeyedBy(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := rl.allow(keyFn(c))
		if !allowed {
			c.Header("Retry-After", retryAfter.String())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded",
				"retryAfter": retryAfter.String(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// reportBucketKey scopes the report limiter's bucket to one client IP and
// one report category, so exhausting the budget for one category's CSV
// doesn't block reads of the other two.
func reportBucketKey(c *gin.Context) string {
	return fmt.Sprintf("%s|%s", c.ClientIP(), c.Param("category"))
}

// cleanupLoop removes stale buckets every cleanupIdleDuration.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupIdleDuration)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-cleanupIdleDuration)
		rl.mu.Lock()
		for key, b := range rl.buckets {
			b.mu.Lock()
			idle := b.lastSeen.Before(cutoff)
			b.mu.Unlock()
			if idle {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}
