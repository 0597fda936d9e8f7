package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithMethods limits only the given methods. Defaults to POST, since GETs
// only render.
func WithMethods(methods ...string) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.methods = make(map[string]struct{}, len(methods))
		for _, m := range methods {
			rl.methods[m] = struct{}{}
		}
	}
}

// WithKeyFunc overrides how clients are identified. Defaults to the remote
// host without its port.
func WithKeyFunc(fn func(*http.Request) string) RateLimiterOption {
	return func(rl *RateLimiter) {
		if fn != nil {
			rl.keyFunc = fn
		}
	}
}

// WithRateLimitLogger sets the logger used for rejected requests.
func WithRateLimitLogger(logger logrus.FieldLogger) RateLimiterOption {
	return func(rl *RateLimiter) {
		if logger != nil {
			rl.logger = logger
		}
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per client.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	rate    rate.Limit
	burst   int
	methods map[string]struct{}
	keyFunc func(*http.Request) string
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewRateLimiter allows requestsPerSecond sustained requests per client with
// bursts of up to burst.
func NewRateLimiter(requestsPerSecond float64, burst int, opts ...RateLimiterOption) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		clients: make(map[string]*client),
		rate:    rate.Limit(requestsPerSecond),
		burst:   burst,
		methods: map[string]struct{}{http.MethodPost: {}},
		keyFunc: remoteHost,
		logger:  logrus.StandardLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(rl)
		}
	}
	return rl
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = c
	}
	now := rl.now()
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Handler rejects requests over the limit with 429 Too Many Requests.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, limited := rl.methods[r.Method]; !limited {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.keyFunc(r)
		if rl.allow(key) {
			next.ServeHTTP(w, r)
			return
		}

		rl.logger.WithFields(logrus.Fields{
			"key":    key,
			"path":   r.URL.Path,
			"method": r.Method,
		}).Warn("rate limit exceeded")

		retry := 1
		if rl.rate > 0 {
			retry = int(1/float64(rl.rate)) + 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
	})
}

// Cleanup drops clients idle for longer than maxIdle and reports how many
// were removed.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-maxIdle)
	removed := 0
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

// StartCleanup runs Cleanup every interval until stop is closed.
func (rl *RateLimiter) StartCleanup(interval, maxIdle time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup(maxIdle)
			case <-stop:
				return
			}
		}
	}()
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
