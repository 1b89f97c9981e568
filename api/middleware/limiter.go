package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/SzKingXz/aurore-backend/api/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type rateLimiter struct {
	limiters  map[string]*visitor
	mu        sync.Mutex
	r         rate.Limit
	b         int
	lastSweep time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	visitorTTL    = 10 * time.Minute
	sweepInterval = time.Minute
)

func newRateLimiter(r rate.Limit, b int) *rateLimiter {
	return &rateLimiter{
		limiters: make(map[string]*visitor),
		r:        r,
		b:        b,
	}
}

func (rl *rateLimiter) getLimiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= sweepInterval {
		for k, v := range rl.limiters {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(rl.limiters, k)
			}
		}
		rl.lastSweep = now
	}

	v, exists := rl.limiters[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.r, rl.b)}
		rl.limiters[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// RateLimitMiddleware applies a per-IP token bucket.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	rl := newRateLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !rl.getLimiter(c.ClientIP(), time.Now()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: "too many requests, slow down",
			})
			return
		}
		c.Next()
	}
}
