package server

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Badar25/Journal-backend/internal/logging"
)

// defaultRateLimit is the sustained chat/summary rate per user when no
// explicit limit is configured. Each call may run a model generation.
const defaultRateLimit = 1

// defaultRateBurst is the maximum burst per user when no explicit burst is
// configured.
const defaultRateBurst = 5

// idleEviction is how long a user's bucket survives without requests.
const idleEviction = 10 * time.Minute

// userLimiter holds a token-bucket rate limiter and the last time it was
// used, for eviction of idle users.
type userLimiter struct {
	// limiter is the per-user token bucket.
	limiter *rate.Limiter
	// lastSeen is updated on every request from this user.
	lastSeen time.Time
}

// rateLimiter is an HTTP middleware that enforces a per-user token-bucket
// rate limit. It runs after authentication, so the key is the verified user
// ID; unauthenticated requests never reach it. Idle users are evicted every
// minute to bound memory usage.
type rateLimiter struct {
	// mu protects the limiters map.
	mu sync.Mutex
	// limiters maps user ID to its bucket.
	limiters map[string]*userLimiter
	// rps is the sustained request rate allowed per user (requests/second).
	rps rate.Limit
	// burst is the maximum instantaneous burst per user.
	burst int
	// log is the structured logger for rate-limit events.
	log *slog.Logger
}

// newRateLimiter constructs a rateLimiter and starts the background eviction
// goroutine. The goroutine exits when the returned stop function is called.
func newRateLimiter(rps float64, burst int, log *slog.Logger) (*rateLimiter, func()) {
	rl := &rateLimiter{
		limiters: make(map[string]*userLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		log:      log,
	}

	stopCh := make(chan struct{})
	go rl.evictLoop(stopCh)

	var once sync.Once
	return rl, func() { once.Do(func() { close(stopCh) }) }
}

// getLimiter returns the limiter for user, creating one if needed.
func (rl *rateLimiter) getLimiter(user string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[user]
	if !ok {
		entry = &userLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.limiters[user] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// evictLoop runs evict every minute until stopCh is closed.
func (rl *rateLimiter) evictLoop(stopCh <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			rl.evict(time.Now().Add(-idleEviction))
		}
	}
}

// evict removes buckets last used before cutoff.
func (rl *rateLimiter) evict(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for user, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, user)
		}
	}
}

// size returns the number of tracked users.
func (rl *rateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// middleware enforces the limit before delegating to next. Requests over
// the limit receive 429 with a Retry-After header.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())
		res := rl.getLimiter(user).Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			logging.FromContext(r.Context()).Warn("rate limit exceeded",
				slog.String("user_id", user),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			writeJSON(w, r, http.StatusTooManyRequests, envelope{
				Message: "Too many requests, slow down",
				Error:   "RATE_LIMITED",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
