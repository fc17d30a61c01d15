package httpapi

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/deckforge/server/pkg/cache"
)

type bucket struct {
	count       int
	windowStart time.Time
}

// rateLimiter allows max requests per IP in a fixed window. A bucket expires
// from the cache one window after its first request, which resets the count.
type rateLimiter struct {
	mu         sync.Mutex
	buckets    *cache.TTLCache[string, *bucket]
	max        int
	window     time.Duration
	trustProxy bool
	now        func() time.Time
}

func newRateLimiter(max int, window time.Duration, trustProxy bool) *rateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &rateLimiter{
		buckets:    cache.New[string, *bucket](window, window),
		max:        max,
		window:     window,
		trustProxy: trustProxy,
		now:        time.Now,
	}
}

// Allow records a request from ip. When the limit is exceeded it returns
// false and the time until the window resets.
func (rl *rateLimiter) Allow(ip string) (bool, time.Duration) {
	if rl.max <= 0 {
		return true, 0
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets.Get(ip)
	if !ok || now.Sub(b.windowStart) >= rl.window {
		rl.buckets.Set(ip, &bucket{count: 1, windowStart: now})
		return true, 0
	}

	b.count++
	if b.count <= rl.max {
		return true, 0
	}
	return false, rl.window - now.Sub(b.windowStart)
}

func (rl *rateLimiter) Close() {
	rl.buckets.Close()
}

func (rl *rateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retry := rl.Allow(clientIP(r, rl.trustProxy))
		if !ok {
			seconds := int(retry.Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded, retry in "+strconv.Itoa(seconds)+"s")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP keys a request for rate limiting. Proxy headers are client
// controlled, so they are only read when the server sits behind a proxy that
// sets them. Then X-Real-IP wins, else the last X-Forwarded-For hop, which
// is the one the proxy appended.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			hops := strings.Split(xff, ",")
			if last := strings.TrimSpace(hops[len(hops)-1]); last != "" {
				return last
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
