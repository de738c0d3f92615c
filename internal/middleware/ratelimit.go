package middleware

import (
	"net/http"
	"sync"
	"time"
)

type clientWindow struct {
	count    int
	lastSeen time.Time
}

// RateLimiter caps requests per client address over a fixed window. It
// guards the OAuth endpoints, the only routes reachable without a JWT.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	limit   int
	window  time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientWindow),
		limit:   limit,
		window:  window,
	}

	// Sweep idle clients so the map does not grow unbounded.
	go func() {
		for {
			time.Sleep(window)
			rl.mu.Lock()
			for addr, c := range rl.clients {
				if time.Since(c.lastSeen) > window {
					delete(rl.clients, addr)
				}
			}
			rl.mu.Unlock()
		}
	}()

	return rl
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.allow(r.RemoteAddr) {
			next.ServeHTTP(w, r)
			return
		}
		writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
	})
}

func (rl *RateLimiter) allow(addr string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, exists := rl.clients[addr]
	if !exists || time.Since(c.lastSeen) > rl.window {
		rl.clients[addr] = &clientWindow{count: 1, lastSeen: time.Now()}
		return true
	}

	c.count++
	c.lastSeen = time.Now()
	return c.count <= rl.limit
}
