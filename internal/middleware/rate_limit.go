package middleware

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"employee-service/internal/httputil"

	"golang.org/x/time/rate"
)

const defaultIdleTimeout = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// RateLimiter is an in-memory token bucket per client IP. Clients idle for
// longer than the idle timeout are dropped on the next sweep.
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
	clients sync.Map // map[string]*client

	lastSweep atomic.Int64
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	l := &RateLimiter{
		rps:   rate.Limit(rps),
		burst: burst,
		idle:  defaultIdleTimeout,
		now:   time.Now,
	}
	// an evicted bucket must already have refilled completely
	if rps > 0 {
		if full := time.Duration(float64(burst) / rps * float64(time.Second)); full > l.idle {
			l.idle = full
		}
	}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	now := l.now().UnixNano()
	l.sweep(now)

	v, ok := l.clients.Load(key)
	if !ok {
		v, _ = l.clients.LoadOrStore(key, &client{limiter: rate.NewLimiter(l.rps, l.burst)})
	}
	c := v.(*client)
	c.lastSeen.Store(now)
	return c.limiter
}

// sweep runs at most once per idle period.
func (l *RateLimiter) sweep(now int64) {
	last := l.lastSweep.Load()
	if now-last < int64(l.idle) || !l.lastSweep.CompareAndSwap(last, now) {
		return
	}
	cutoff := now - int64(l.idle)
	l.clients.Range(func(key, v any) bool {
		if v.(*client).lastSeen.Load() < cutoff {
			l.clients.Delete(key)
		}
		return true
	})
}

// Handler rejects requests over the limit with 429. Mount after chi's RealIP
// so proxied clients are keyed by their forwarded address.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter(clientIP(r)).Allow() {
			w.Header().Set("Retry-After", "1")
			httputil.RespondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "unknown"
	}
	return host
}
