package gateway

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/joao-fontenele/storefront/internal/adminauth"
	"golang.org/x/time/rate"
)

// RequireAdmin rejects requests without a valid admin bearer token. A nil
// authority lets every request through.
func RequireAdmin(authority *adminauth.Authority, logger *slog.Logger) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if authority == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			claims, err := authority.FromRequest(r)
			if err != nil {
				logger.WarnContext(r.Context(), "admin request rejected", "error", err, "path", r.URL.Path)
				writeError(w, logger, http.StatusUnauthorized, "unauthorized")
				return
			}
			logger.DebugContext(r.Context(), "admin request authorized", "admin", claims.Subject, "role", claims.Role)
			next(w, r)
		}
	}
}

// IPLimiter keeps one token bucket per client address.
type IPLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time

	lastSweep time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewIPLimiter(perMinute, burst int) *IPLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPLimiter{
		limiters: make(map[string]*visitor),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		idle:     10 * time.Minute,
		now:      time.Now,
	}
}

func (l *IPLimiter) Allow(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.limiters[addr]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[addr] = v
	}
	v.lastSeen = now
	l.evict(now)
	return v.limiter.AllowN(now, 1)
}

// evict drops buckets idle for longer than l.idle, sweeping the map at
// most once per l.idle/2. Callers hold l.mu.
func (l *IPLimiter) evict(now time.Time) {
	if now.Sub(l.lastSweep) < l.idle/2 {
		return
	}
	l.lastSweep = now

	for addr, v := range l.limiters {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.limiters, addr)
		}
	}
}

func RateLimit(limiter *IPLimiter, logger *slog.Logger) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			addr := clientAddr(r)
			if !limiter.Allow(addr) {
				logger.WarnContext(r.Context(), "rate limit exceeded", "client", addr, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(60))
				writeError(w, logger, http.StatusTooManyRequests, "too many requests, try again later")
				return
			}
			next(w, r)
		}
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
