package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// SlidingWindowLimiter enforces a per-client request budget over a rolling
// window. Each client holds the timestamps of its recent requests; a request
// is allowed when fewer than limit timestamps fall inside the window. AI
// generation endpoints are expensive enough that a fixed window would let
// clients burst at the boundary, so the window slides.
type SlidingWindowLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	clients map[string][]time.Time
}

// NewSlidingWindowLimiter creates a limiter allowing limit requests per
// client per window.
func NewSlidingWindowLimiter(limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string][]time.Time),
	}
}

// Allow records a request for clientID if it fits the budget. It returns
// whether the request may proceed, how many requests remain in the current
// window, and how long until a slot frees when denied.
func (l *SlidingWindowLimiter) Allow(clientID string) (bool, int, time.Duration) {
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	stamps := l.clients[clientID]
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		l.clients[clientID] = kept
		retry := kept[0].Add(l.window).Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return false, 0, retry
	}

	kept = append(kept, now)
	l.clients[clientID] = kept
	return true, l.limit - len(kept), 0
}

// ActiveClients returns the number of clients currently tracked.
func (l *SlidingWindowLimiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// StartSweeper drops clients whose requests have all aged out of the window.
// It blocks until ctx is cancelled, so call it in a goroutine.
func (l *SlidingWindowLimiter) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-l.window)
			l.mu.Lock()
			for id, stamps := range l.clients {
				stale := true
				for _, ts := range stamps {
					if ts.After(cutoff) {
						stale = false
						break
					}
				}
				if stale {
					delete(l.clients, id)
				}
			}
			l.mu.Unlock()
		}
	}
}

// RateLimit returns an Echo middleware enforcing the limiter per client.
// Client identity is the X-Client-ID header when present, otherwise the
// client IP address.
func RateLimit(limiter *SlidingWindowLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			clientID := c.Request().Header.Get("X-Client-ID")
			if clientID == "" {
				clientID = c.RealIP()
			}

			allowed, remaining, retry := limiter.Allow(clientID)

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				retrySecs := int(retry.Seconds())
				if retrySecs < 1 {
					retrySecs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(retrySecs))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			return next(c)
		}
	}
}
