package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per caller (user id, or client IP
// for anonymous requests).
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
	sweeps   int
}

// NewRateLimiter allows perMinute requests per caller with bursts of the
// same size. A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
		now:      time.Now,
	}
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	l.sweeps++
	if l.sweeps%1024 == 0 {
		for k, other := range l.visitors {
			if now.Sub(other.lastSeen) > limiterIdleTTL {
				delete(l.visitors, k)
			}
		}
	}
	return v.limiter.AllowN(now, 1)
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.burst <= 0 {
			c.Next()
			return
		}
		key := "ip:" + c.ClientIP()
		if caller := CallerFrom(c); caller.Authenticated() {
			key = "user:" + strconv.Itoa(caller.UserID)
		}
		if !l.allow(key) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, slow down"})
			return
		}
		c.Next()
	}
}
