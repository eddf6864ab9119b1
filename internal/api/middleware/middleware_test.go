package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	if !rl.Allow("1.1.1.1") || !rl.Allow("1.1.1.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.1.1.1") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("2.2.2.2") {
		t.Error("other IP has its own bucket")
	}
	if got := rl.Tracked(); got != 2 {
		t.Errorf("Tracked() = %d, want 2", got)
	}
}

func TestRateLimiterSweepsIdleIPs(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	start := time.Now()
	rl.now = func() time.Time { return start }

	if !rl.Allow("1.1.1.1") {
		t.Fatal("first request should pass")
	}
	if rl.Allow("1.1.1.1") {
		t.Fatal("second request should be limited")
	}

	// 新 IP 觸發清理，但閒置未滿一小時的 IP 仍被追蹤
	rl.now = func() time.Time { return start.Add(30 * time.Minute) }
	rl.Allow("2.2.2.2")
	if got := rl.Tracked(); got != 2 {
		t.Fatalf("Tracked() = %d, want 2", got)
	}

	rl.now = func() time.Time { return start.Add(2 * time.Hour) }
	rl.Allow("3.3.3.3")
	if got := rl.Tracked(); got != 1 {
		t.Errorf("Tracked() after idle sweep = %d, want 1", got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newEngine(RateLimit(1, time.Minute))
	if w := do(r, http.MethodGet, "/x", ""); w.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", w.Code)
	}
	w := do(r, http.MethodGet, "/x", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
}

func TestDeduplication(t *testing.T) {
	d := NewDeduplicator(time.Minute)
	r := newEngine(Deduplication(d))

	if w := do(r, http.MethodPost, "/x", `{"a":1}`); w.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/x", `{"a":1}`); w.Code != http.StatusTooManyRequests {
		t.Fatalf("duplicate status = %d, want 429", w.Code)
	}
	if w := do(r, http.MethodPost, "/x", `{"a":2}`); w.Code != http.StatusNoContent {
		t.Fatalf("different body status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/x", ""); w.Code != http.StatusNoContent {
		t.Fatalf("GET status = %d", w.Code)
	}

	d.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if w := do(r, http.MethodPost, "/x", `{"a":1}`); w.Code != http.StatusNoContent {
		t.Fatalf("after window status = %d", w.Code)
	}
}

func TestBodySizeLimit(t *testing.T) {
	r := newEngine(BodySizeLimit(4))
	if w := do(r, http.MethodPost, "/x", "123456"); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
	if w := do(r, http.MethodPost, "/x", "12"); w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRecovery(t *testing.T) {
	r := newEngine(Recovery())
	w := do(r, http.MethodGet, "/panic", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "INTERNAL_ERROR") {
		t.Errorf("body = %s", w.Body.String())
	}
}
