package httpserver

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// limiterIdle is how long a client may stay quiet before its bucket is
// dropped. It is far longer than any bucket takes to refill.
const limiterIdle = 10 * time.Minute

// ipLimiter hands out one token bucket per client IP.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rps      int
	burst    int
	now      func() time.Time
}

type clientLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

func newIPLimiter(rps, burst int) *ipLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &ipLimiter{limiters: make(map[string]*clientLimiter), rps: rps, burst: burst, now: time.Now}
}

func (l *ipLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.limiters[key]; ok {
		c.seen = l.now()
		return c.lim
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(l.rps)), l.burst)
	l.limiters[key] = &clientLimiter{lim: lim, seen: l.now()}
	return lim
}

// Sweep forgets clients not seen for maxIdle and returns how many went.
func (l *ipLimiter) Sweep(maxIdle time.Duration) int {
	cutoff := l.now().Add(-maxIdle)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, c := range l.limiters {
		if c.seen.Before(cutoff) {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (l *ipLimiter) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := l.Sweep(maxIdle); n > 0 {
				log.Debug().Int("removed", n).Msg("swept idle rate limiters")
			}
		}
	}
}

func (l *ipLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Middleware rejects requests over the per-IP rate with 429.
func (l *ipLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if !l.get(key).Allow() {
			hlog.FromRequest(r).Warn().Str("ip", key).Msg("rate limited")
			writeError(w, http.StatusTooManyRequests, "rate_limited", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr (already rewritten by RealIP).
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
