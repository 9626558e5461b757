package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per key
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	period   time.Duration
}

// NewRateLimiter allows perPeriod requests per key every period, with
// bursts up to perPeriod.
func NewRateLimiter(perPeriod int, period time.Duration) *RateLimiter {
	if perPeriod <= 0 {
		perPeriod = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(period / time.Duration(perPeriod)),
		burst:    perPeriod,
		period:   period,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

// Allow checks if a request should be allowed for the given key
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

// Remaining returns the whole tokens left for a key
func (rl *RateLimiter) Remaining(key string) int {
	n := int(rl.limiter(key).Tokens())
	if n < 0 {
		return 0
	}
	return n
}

// RateLimitMiddleware limits by authenticated user, falling back to the
// client IP.
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := GetUserID(c); ok {
			key = userID.String()
		}

		allowed := rl.Allow(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.burst))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(rl.Remaining(key)))

		if !allowed {
			RespondErrorWithRetry(c, http.StatusTooManyRequests, ErrCodeRateLimited,
				"Too many requests, please try again later",
				int((rl.period / time.Duration(rl.burst)).Milliseconds()))
			c.Abort()
			return
		}
		c.Next()
	}
}
