package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gastbook/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := New(config.RateLimitConfig{RPS: 0.001, Burst: 2})

	r := gin.New()
	r.Use(l.Middleware())
	r.POST("/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	// buckets are per ip
	assert.Equal(t, http.StatusOK, do("10.0.0.2"))
}

func TestCleanup(t *testing.T) {
	l := New(config.RateLimitConfig{RPS: 1, Burst: 1})
	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 2, l.size())

	l.mu.Lock()
	l.visitors["a"].lastSeen = time.Now().Add(-time.Hour)
	l.mu.Unlock()

	l.Cleanup(3 * time.Minute)
	assert.Equal(t, 1, l.size())
}
