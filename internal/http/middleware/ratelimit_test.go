package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/ctxutil"
)

func TestMutationRateLimitOnlyThrottlesWrites(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MutationRateLimit(0.001, 2))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/x", ok)
	r.POST("/x", ok)

	do := func(method string) int {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, "/x", nil))
		return rec.Code
	}
	for i := 0; i < 2; i++ {
		if got := do(http.MethodPost); got != http.StatusOK {
			t.Fatalf("post %d within burst: got=%d", i, got)
		}
	}
	if got := do(http.MethodPost); got != http.StatusTooManyRequests {
		t.Fatalf("post over burst: want=429 got=%d", got)
	}
	for i := 0; i < 5; i++ {
		if got := do(http.MethodGet); got != http.StatusOK {
			t.Fatalf("reads must not be limited: got=%d", got)
		}
	}
}

func TestMutationRateLimitIsPerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if u := c.GetHeader("X-Test-User"); u != "" {
			c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: u}))
		}
		c.Next()
	})
	r.Use(MutationRateLimit(0.001, 1))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set("X-Test-User", user)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}
	if got := do("user_a"); got != http.StatusOK {
		t.Fatalf("user_a first: want=200 got=%d", got)
	}
	if got := do("user_a"); got != http.StatusTooManyRequests {
		t.Fatalf("user_a second: want=429 got=%d", got)
	}
	if got := do("user_b"); got != http.StatusOK {
		t.Fatalf("user_b must have its own bucket: want=200 got=%d", got)
	}
}

func TestCallerLimitersEvictIdleEntries(t *testing.T) {
	l := newCallerLimiters(1, 1)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return at }
	l.allow("user:a")
	at = at.Add(limiterIdleTTL + time.Second)
	l.allow("user:b")
	if _, ok := l.entries["user:a"]; ok {
		t.Fatalf("idle limiter should be evicted")
	}
	if len(l.entries) != 1 {
		t.Fatalf("entries: want=1 got=%d", len(l.entries))
	}
}

func TestMutationRateLimitDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MutationRateLimit(0, 0))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("disabled limiter rejected request %d", i)
		}
	}
}

func TestAttachTraceContextEchoesIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get(headerRequestID); got != "req-123" {
		t.Fatalf("request id: got=%q", got)
	}
	if rec.Header().Get(headerTraceID) == "" {
		t.Fatalf("trace id should be generated")
	}
}
