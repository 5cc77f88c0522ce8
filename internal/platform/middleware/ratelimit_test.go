package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestSlidingWindowLimiter_AllowsUpToLimit(t *testing.T) {
	l := NewSlidingWindowLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, remaining, _ := l.Allow("client-a")
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if remaining != 3-(i+1) {
			t.Errorf("request %d: remaining = %d, want %d", i+1, remaining, 3-(i+1))
		}
	}

	allowed, _, retry := l.Allow("client-a")
	if allowed {
		t.Fatal("fourth request should be denied")
	}
	if retry < time.Second {
		t.Errorf("retry = %v, want at least 1s", retry)
	}
}

func TestSlidingWindowLimiter_IsolatesClients(t *testing.T) {
	l := NewSlidingWindowLimiter(1, time.Minute)

	if allowed, _, _ := l.Allow("client-a"); !allowed {
		t.Fatal("client-a first request should be allowed")
	}
	if allowed, _, _ := l.Allow("client-a"); allowed {
		t.Fatal("client-a second request should be denied")
	}
	if allowed, _, _ := l.Allow("client-b"); !allowed {
		t.Fatal("client-b should have its own budget")
	}
}

func TestSlidingWindowLimiter_WindowSlides(t *testing.T) {
	l := NewSlidingWindowLimiter(2, 50*time.Millisecond)

	l.Allow("c")
	l.Allow("c")
	if allowed, _, _ := l.Allow("c"); allowed {
		t.Fatal("third request inside window should be denied")
	}

	time.Sleep(60 * time.Millisecond)
	if allowed, _, _ := l.Allow("c"); !allowed {
		t.Fatal("request after window passed should be allowed")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	l := NewSlidingWindowLimiter(1, time.Minute)
	e := echo.New()
	handler := RateLimit(l)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Client-ID", "ward-3")
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("remaining header = %q", rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec = httptest.NewRecorder()
	err := handler(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request err = %v, want 429", err)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on denial")
	}
}
