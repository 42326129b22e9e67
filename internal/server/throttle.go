package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle limits requests per client address with a token bucket per client.
//
// A client idle for longer than its bucket takes to refill is forgotten; its next request gets a fresh, full
// bucket, which is what the old one would have held anyway.
type Throttle struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewThrottle allows perMinute requests per client with bursts of up to burst.
func NewThrottle(perMinute, burst int) *Throttle {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	interval := time.Minute / time.Duration(perMinute)
	return &Throttle{
		clients: make(map[string]*client),
		limit:   rate.Every(interval),
		burst:   burst,
		idle:    interval * time.Duration(burst),
		now:     time.Now,
	}
}

// Allow reports whether addr may make another request now.
func (t *Throttle) Allow(addr string) bool {
	t.mu.Lock()
	now := t.now()
	t.sweep(now)

	c, ok := t.clients[addr]
	if !ok {
		c = &client{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.clients[addr] = c
	}
	c.lastSeen = now
	t.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

// sweep drops clients idle for longer than t.idle, at most once per idle period. Callers hold t.mu.
func (t *Throttle) sweep(now time.Time) {
	if now.Sub(t.lastSweep) < t.idle {
		return
	}
	for addr, c := range t.clients {
		if now.Sub(c.lastSeen) > t.idle {
			delete(t.clients, addr)
		}
	}
	t.lastSweep = now
}

// Middleware answers 429 Too Many Requests once a client exceeds its allowance.
func (t *Throttle) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !t.Allow(ClientIP(r)) {
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Too many requests. Try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of the request's remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
