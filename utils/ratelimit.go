package utils

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// rateLimiterStore holds a map of client IPs to their rate limiters.
type rateLimiterStore struct {
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	r        rate.Limit
	burst    int
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

func newRateLimiterStore(rps float64, burst int) *rateLimiterStore {
	s := &rateLimiterStore{
		limiters: make(map[string]*limiterEntry),
		r:        rate.Limit(rps),
		burst:    burst,
	}
	// drop limiters for IPs not seen in a while
	go func() {
		for {
			time.Sleep(time.Minute)
			s.mu.Lock()
			for ip, e := range s.limiters {
				if time.Since(e.seen) > 3*time.Minute {
					delete(s.limiters, ip)
				}
			}
			s.mu.Unlock()
		}
	}()
	return s
}

func (s *rateLimiterStore) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.limiters[ip]; ok {
		e.seen = time.Now()
		return e.lim
	}
	l := rate.NewLimiter(s.r, s.burst)
	s.limiters[ip] = &limiterEntry{lim: l, seen: time.Now()}
	return l
}

// RateLimitMiddleware limits requests per client IP address.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	store := newRateLimiterStore(rps, burst)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !store.get(ip).Allow() {
			zap.L().Warn("Rate limit exceeded", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
