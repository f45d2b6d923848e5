package localratelimiter

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const idleTimeout = time.Minute

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	clientLimiters map[string]*limiterEntry
	mutex          sync.Mutex
	limit          rate.Limit
	burst          int
	onLimited      gin.HandlerFunc
	now            func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new RateLimiter instance. onLimited writes the
// response for rejected requests and must abort the context.
func NewRateLimiter(perSecond float64, burst int, onLimited gin.HandlerFunc) *RateLimiter {
	if burst <= 0 {
		burst = int(perSecond * 2)
		if burst < 1 {
			burst = 1
		}
	}
	return &RateLimiter{
		clientLimiters: make(map[string]*limiterEntry),
		limit:          rate.Limit(perSecond),
		burst:          burst,
		onLimited:      onLimited,
		now:            time.Now,
	}
}

// Run sweeps idle limiters until stop is closed.
func (rl *RateLimiter) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(idleTimeout)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanupOldLimiters()
		case <-stop:
			return
		}
	}
}

// RateLimiterMiddleware returns a gin.HandlerFunc that enforces rate limiting
func (rl *RateLimiter) RateLimiterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			rl.onLimited(c)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mutex.Lock()
	entry := rl.getLimiter(key)
	rl.mutex.Unlock()

	return entry.limiter.AllowN(rl.now(), 1)
}

// Helper function to get a rate limiter from the map, creating a new one if necessary
func (rl *RateLimiter) getLimiter(key string) *limiterEntry {
	if entry, exists := rl.clientLimiters[key]; exists {
		entry.lastSeen = rl.now()
		return entry
	}

	entry := &limiterEntry{
		limiter:  rate.NewLimiter(rl.limit, rl.burst),
		lastSeen: rl.now(),
	}
	rl.clientLimiters[key] = entry

	return entry
}

func (rl *RateLimiter) cleanupOldLimiters() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	for key, entry := range rl.clientLimiters {
		if rl.now().Sub(entry.lastSeen) > idleTimeout {
			delete(rl.clientLimiters, key)
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.clientLimiters)
}
