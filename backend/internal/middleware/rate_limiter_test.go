package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func setupTestGin() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func okRoute(router *gin.Engine) {
	router.GET("/todos/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})
}

func requestFrom(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, "/todos/", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_BlocksBurst(t *testing.T) {
	router := setupTestGin()
	router.Use(RateLimiter(rate.Limit(1), 1))
	okRoute(router)

	if w := requestFrom(router, "127.0.0.1:12345"); w.Code != http.StatusOK {
		t.Errorf("Expected first request to succeed, got status %d", w.Code)
	}
	if w := requestFrom(router, "127.0.0.1:12345"); w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected second request to be rate limited, got status %d", w.Code)
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	router := setupTestGin()
	router.Use(RateLimiter(rate.Limit(1), 1))
	okRoute(router)

	w1 := requestFrom(router, "127.0.0.1:12345")
	w2 := requestFrom(router, "192.168.1.1:12345")

	if w1.Code != http.StatusOK || w2.Code != http.StatusOK {
		t.Errorf("Expected both clients to get through, got %d and %d", w1.Code, w2.Code)
	}
}

func TestDistributedRateLimiter_AllowsUpToRate(t *testing.T) {
	client, _ := setupTestRedis(t)

	router := setupTestGin()
	limiter := NewDistributedRateLimiter(client)
	router.Use(limiter.CreateMiddleware("api", &RateLimit{
		Rate:    2,
		Window:  time.Minute,
		KeyFunc: IPKeyFunc,
	}))
	okRoute(router)

	if len(limiter.limits) != 1 {
		t.Errorf("Expected 1 limit to be stored, got %d", len(limiter.limits))
	}

	for i := 0; i < 2; i++ {
		if w := requestFrom(router, "127.0.0.1:12345"); w.Code != http.StatusOK {
			t.Errorf("Expected request %d to succeed, got status %d", i+1, w.Code)
		}
	}

	w := requestFrom(router, "127.0.0.1:12345")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected third request to be rate limited, got status %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "2" {
		t.Errorf("Expected X-RateLimit-Limit 2, got %q", w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestDistributedRateLimiter_OnLimit(t *testing.T) {
	client, _ := setupTestRedis(t)

	router := setupTestGin()
	called := false
	router.Use(NewDistributedRateLimiter(client).CreateMiddleware("api", &RateLimit{
		Rate:    1,
		Window:  time.Minute,
		KeyFunc: IPKeyFunc,
		OnLimit: func(c *gin.Context) {
			called = true
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "slow down"})
		},
	}))
	okRoute(router)

	requestFrom(router, "127.0.0.1:12345")
	w := requestFrom(router, "127.0.0.1:12345")

	if !called {
		t.Error("Expected OnLimit callback to be called")
	}
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected custom status from OnLimit callback, got %d", w.Code)
	}
}

func TestDistributedRateLimiter_FailsOpenWhenRedisDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	router := setupTestGin()
	limiter := NewDistributedRateLimiter(client)
	router.Use(limiter.CreateMiddleware("api", &RateLimit{
		Rate:    1,
		Window:  time.Minute,
		KeyFunc: IPKeyFunc,
	}))
	okRoute(router)

	for i := 0; i < 7; i++ {
		w := requestFrom(router, "127.0.0.1:12345")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected request %d to fail open, got status %d", i+1, w.Code)
		}
		if w.Header().Get("X-RateLimit-Error") != "true" {
			t.Errorf("Expected X-RateLimit-Error header on request %d", i+1)
		}
	}

	if state := limiter.breaker.State(); state != stateOpen {
		t.Errorf("Expected breaker to open after repeated Redis failures, got %s", state)
	}
}

func TestDistributedRateLimiter_ClientDisconnectIsNotRedisFailure(t *testing.T) {
	client, _ := setupTestRedis(t)

	router := setupTestGin()
	limiter := NewDistributedRateLimiter(client)
	router.Use(limiter.CreateMiddleware("api", &RateLimit{
		Rate:    100,
		Window:  time.Minute,
		KeyFunc: IPKeyFunc,
	}))
	okRoute(router)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 7; i++ {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "/todos/", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Header().Get("X-RateLimit-Error") != "" {
			t.Errorf("Expected request %d with a cancelled context to reach Redis", i+1)
		}
	}

	if state := limiter.breaker.State(); state != stateClosed {
		t.Errorf("Expected breaker to stay closed after client disconnects, got %s", state)
	}
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Minute)
	testErr := errors.New("test error")

	if err := cb.Call(func() error { return testErr }); err != testErr {
		t.Errorf("Expected test error, got %v", err)
	}
	if cb.State() != stateClosed {
		t.Errorf("Expected breaker to stay closed after one failure, got %s", cb.State())
	}

	cb.Call(func() error { return testErr })
	if cb.State() != stateOpen {
		t.Errorf("Expected breaker to open, got %s", cb.State())
	}

	err := cb.Call(func() error {
		t.Error("Function should not be called when circuit is open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(1, 50*time.Millisecond)
	cb.Call(func() error { return errors.New("test error") })

	time.Sleep(80 * time.Millisecond)

	if err := cb.Call(func() error { return nil }); err != nil {
		t.Errorf("Expected trial call to succeed, got %v", err)
	}
	if cb.State() != stateClosed {
		t.Errorf("Expected breaker to close after successful trial, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(3, 50*time.Millisecond)
	for i := 0; i < 3; i++ {
		cb.Call(func() error { return errors.New("test error") })
	}

	time.Sleep(80 * time.Millisecond)

	cb.Call(func() error { return errors.New("still failing") })
	if cb.State() != stateOpen {
		t.Errorf("Expected failed trial to reopen the breaker, got %s", cb.State())
	}
}

func BenchmarkRateLimiter(b *testing.B) {
	router := setupTestGin()
	router.Use(RateLimiter(rate.Limit(1000), 100))
	router.GET("/todos/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req, _ := http.NewRequest(http.MethodGet, "/todos/", nil)
	req.RemoteAddr = "127.0.0.1:12345"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
}
