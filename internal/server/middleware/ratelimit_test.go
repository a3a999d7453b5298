// file: internal/server/middleware/ratelimit_test.go
// version: 2.0.0
// guid: b31f3de0-b0bc-4cbf-8448-7309df38f7c0

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewIPRateLimiter_Defaults(t *testing.T) {
	t.Parallel()

	limiter := NewIPRateLimiter(0, 0)
	assert.Equal(t, 1, limiter.requestsPerMin)
	assert.Equal(t, 1, limiter.burst)
}

func doFrom(router *gin.Engine, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remote
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestIPRateLimiter_Middleware(t *testing.T) {
	t.Parallel()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewIPRateLimiter(1, 1, "/api/health").Middleware())
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	router.GET("/limited", ok)
	router.GET("/api/health", ok)

	assert.Equal(t, http.StatusOK, doFrom(router, "/limited", "192.0.2.1:1234").Code)

	resp := doFrom(router, "/limited", "192.0.2.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Contains(t, resp.Body.String(), "rate limit exceeded")
	assert.Contains(t, resp.Body.String(), `"code":"RATE_LIMITED"`)
	assert.Equal(t, "60", resp.Header().Get("Retry-After"))

	// Different IP should have its own bucket.
	assert.Equal(t, http.StatusOK, doFrom(router, "/limited", "198.51.100.3:4321").Code)

	// Exempt paths are never limited.
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doFrom(router, "/api/health", "192.0.2.1:1234").Code)
	}
}

func TestIPRateLimiter_SweepsIdleBuckets(t *testing.T) {
	t.Parallel()

	limiter := NewIPRateLimiter(60, 1)
	now := time.Now()
	limiter.now = func() time.Time { return now }

	limiter.limiterForIP("192.0.2.1")
	limiter.limiterForIP("192.0.2.2")
	assert.Equal(t, 2, limiter.Len())

	now = now.Add(limiter.idleTTL + time.Second)
	limiter.limiterForIP("192.0.2.3")
	assert.Equal(t, 1, limiter.Len())
}
