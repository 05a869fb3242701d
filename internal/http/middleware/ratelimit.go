package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/ctxutil"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// callerLimiters hands out one token bucket per caller key.
type callerLimiters struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	entries   map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

func newCallerLimiters(rps float64, burst int) *callerLimiters {
	return &callerLimiters{
		rps:     rate.Limit(rps),
		burst:   burst,
		entries: map[string]*limiterEntry{},
		now:     time.Now,
	}
}

func (l *callerLimiters) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func callerKey(c *gin.Context) string {
	if id := ctxutil.UserID(c.Request.Context()); id != "" {
		return "user:" + id
	}
	return "ip:" + c.ClientIP()
}

// MutationRateLimit caps POST and DELETE traffic with a token bucket per
// caller, keyed by user id or client IP when anonymous. rps <= 0 disables the limit.
func MutationRateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiters := newCallerLimiters(rps, burst)
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if !limiters.allow(callerKey(c)) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests", "code": "rate_limited"})
			return
		}
		c.Next()
	}
}
