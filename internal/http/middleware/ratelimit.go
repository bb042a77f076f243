package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter is a per-client token bucket. The portal login sits behind
// it so a misbehaving dialer cannot hammer the doctor lookup.
type RateLimiter struct {
	rate  float64
	burst float64

	mu      sync.Mutex
	clients map[string]*tokenBucket
}

type tokenBucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter allows rate requests per second with the given burst per
// client key, and evicts idle clients in the background.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		rate:    rate,
		burst:   float64(burst),
		clients: make(map[string]*tokenBucket),
	}
	go rl.evictLoop(5 * time.Minute)
	return rl
}

// Allow reports whether the client identified by key has budget for one
// more request, and spends a token when it does.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	tb, ok := rl.clients[key]
	if !ok {
		rl.clients[key] = &tokenBucket{tokens: rl.burst - 1, lastSeen: now}
		return true
	}

	tb.tokens = min(rl.burst, tb.tokens+now.Sub(tb.lastSeen).Seconds()*rl.rate)
	tb.lastSeen = now
	if tb.tokens < 1 {
		return false
	}
	tb.tokens--
	return true
}

func (rl *RateLimiter) evictLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-2 * every)
		rl.mu.Lock()
		for key, tb := range rl.clients {
			if tb.lastSeen.Before(cutoff) {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit rejects over-budget requests with 429 and a Retry-After hint.
// Clients are keyed by the X-Real-Ip header when chi's RealIP middleware
// has populated it, falling back to RemoteAddr.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientKey(r)) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
