package localratelimiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func tooMany(c *gin.Context) {
	c.AbortWithStatus(http.StatusTooManyRequests)
}

func TestAllowPerClient(t *testing.T) {
	rl := NewRateLimiter(1, 2, tooMany)
	frozen := time.Now()
	rl.now = func() time.Time { return frozen }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	// other clients have their own bucket
	assert.True(t, rl.Allow("10.0.0.2"))

	frozen = frozen.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestCleanupOldLimiters(t *testing.T) {
	rl := NewRateLimiter(1, 1, tooMany)
	frozen := time.Now()
	rl.now = func() time.Time { return frozen }

	rl.Allow("a")
	rl.Allow("b")
	assert.Equal(t, 2, rl.size())

	frozen = frozen.Add(2 * idleTimeout)
	rl.Allow("b")
	rl.cleanupOldLimiters()
	assert.Equal(t, 1, rl.size())
}

func TestRateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1, 1, tooMany)
	frozen := time.Now()
	rl.now = func() time.Time { return frozen }

	router := gin.New()
	router.Use(rl.RateLimiterMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestDefaultBurst(t *testing.T) {
	assert.Equal(t, 1, NewRateLimiter(0.2, 0, tooMany).burst)
	assert.Equal(t, 6, NewRateLimiter(3, 0, tooMany).burst)
}
