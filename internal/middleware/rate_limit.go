package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"upfitter/showroom/internal/config"
	"upfitter/showroom/internal/metrics"
)

var whitelistedIPs = map[string]bool{
	"127.0.0.1": true,
	"::1":       true,
}

// limiterIdleTTL is how long an IP's bucket survives without requests.
const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter hands out one token bucket per client IP. Idle buckets are swept
// on access at most once per idleTTL, so no background goroutine is needed.
type ipLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newIPLimiter(rps rate.Limit, burst int) *ipLimiter {
	return &ipLimiter{
		visitors: make(map[string]*visitor),
		rps:      rps,
		burst:    burst,
		idleTTL:  limiterIdleTTL,
		now:      time.Now,
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) >= l.idleTTL {
				delete(l.visitors, key)
			}
		}
		l.lastSweep = now
	}

	if v, exists := l.visitors[ip]; exists {
		v.lastSeen = now
		return v.limiter
	}
	v := &visitor{limiter: rate.NewLimiter(l.rps, l.burst), lastSeen: now}
	l.visitors[ip] = v
	return v.limiter
}

func (l *ipLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// RateLimitMiddleware limits requests per client IP. A non-positive RPS
// disables limiting.
func RateLimitMiddleware(cfg config.RateLimitConfig, metricsReg *metrics.MetricsRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cfg.RPS <= 0 {
			return next
		}
		limiter := newIPLimiter(rate.Limit(cfg.RPS), max(cfg.Burst, 1))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if whitelistedIPs[ip] {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.get(ip).Allow() {
				if metricsReg != nil {
					metricsReg.RateLimitDrops.Inc()
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"error":   "RATE_LIMITED",
					"message": "Too many requests",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
