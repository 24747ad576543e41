package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// countingCache implements the increment side of application.SessionCache.
type countingCache struct {
	mu     sync.Mutex
	counts map[string]int64
	fail   bool
}

func newCountingCache() *countingCache {
	return &countingCache{counts: map[string]int64{}}
}

func (c *countingCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }

func (c *countingCache) Set(context.Context, string, string, time.Duration) error { return nil }

func (c *countingCache) Delete(context.Context, string) error { return nil }

func (c *countingCache) Exists(context.Context, string) (bool, error) { return false, nil }

func (c *countingCache) Increment(_ context.Context, key string, _ time.Duration) (int64, error) {
	if c.fail {
		return 0, errors.New("cache down")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return c.counts[key], nil
}

func limitedRouter(cache *countingCache, max int, allow AllowFunc) *gin.Engine {
	r := gin.New()
	r.GET("/ping", RateLimit(cache, max, time.Minute, KeyByIP(), allow), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func ping(r *gin.Engine) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "198.51.100.7:4321"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	t.Run("requests over the limit get 429", func(t *testing.T) {
		r := limitedRouter(newCountingCache(), 2, nil)

		assert.Equal(t, http.StatusOK, ping(r).Code)
		assert.Equal(t, http.StatusOK, ping(r).Code)

		w := ping(r)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "RATE_LIMITED")
	})

	t.Run("headers expose limit and remaining", func(t *testing.T) {
		r := limitedRouter(newCountingCache(), 5, nil)
		w := ping(r)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("cache outage fails open", func(t *testing.T) {
		cache := newCountingCache()
		cache.fail = true
		r := limitedRouter(cache, 1, nil)
		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, ping(r).Code)
		}
	})

	t.Run("allow function bypasses the limit", func(t *testing.T) {
		r := limitedRouter(newCountingCache(), 1, func(*gin.Context) bool { return true })
		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, ping(r).Code)
		}
	})

	t.Run("zero max disables limiting", func(t *testing.T) {
		r := limitedRouter(newCountingCache(), 0, nil)
		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, ping(r).Code)
		}
	})
}

func TestKeyFuncs(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	c.Request.RemoteAddr = "198.51.100.7:4321"

	t.Run("by ip", func(t *testing.T) {
		assert.Equal(t, "rl:ip:198.51.100.7", KeyByIP()(c))
	})

	t.Run("prefers real_ip from context", func(t *testing.T) {
		c.Set("real_ip", "203.0.113.1")
		assert.Equal(t, "rl:ip:203.0.113.1", KeyByIP()(c))
	})

	t.Run("by user falls back to ip when anonymous", func(t *testing.T) {
		assert.Equal(t, "rl:user:anon:ip:203.0.113.1", KeyByUserID()(c))
		c.Set(CtxUserID, "u-9")
		assert.Equal(t, "rl:user:u-9", KeyByUserID()(c))
	})
}
