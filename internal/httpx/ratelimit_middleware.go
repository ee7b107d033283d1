package httpx

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type rateLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware throttles each client independently. Clients are keyed by remote IP unless
// trustForwarded is set, in which case the first X-Forwarded-For hop wins. Only enable that behind a
// proxy that overwrites the header, otherwise any caller can pick a fresh key per request.
type RateLimitMiddleware struct {
	limiters       map[string]*rateLimiter
	trustForwarded bool
	mu             sync.Mutex
	rate           rate.Limit
	burst          int
	cleanup        time.Duration
	done           chan struct{}
	once           sync.Once
}

func NewRateLimitMiddleware(rps float64, burst int, trustForwarded bool) *RateLimitMiddleware {
	rl := &RateLimitMiddleware{
		limiters:       make(map[string]*rateLimiter),
		trustForwarded: trustForwarded,
		rate:           rate.Limit(rps),
		burst:          burst,
		cleanup:        5 * time.Minute,
		done:           make(chan struct{}),
	}

	go rl.cleanupLimiters()
	return rl
}

// Close stops the background cleanup.
func (rl *RateLimitMiddleware) Close() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *RateLimitMiddleware) cleanupLimiters() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for key, limiter := range rl.limiters {
				if time.Since(limiter.lastSeen) > rl.cleanup {
					delete(rl.limiters, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimitMiddleware) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = &rateLimiter{
			limiter:  rate.NewLimiter(rl.rate, rl.burst),
			lastSeen: time.Now(),
		}
		rl.limiters[key] = limiter
	} else {
		limiter.lastSeen = time.Now()
	}

	return limiter.limiter
}

func clientKey(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := rl.getLimiter(clientKey(r, rl.trustForwarded))
		if !limiter.Allow() {
			JSONError(w, r, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
