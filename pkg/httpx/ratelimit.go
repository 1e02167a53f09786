package httpx

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/delegate/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// Rate limit profiles. Each can be overridden with RATELIMIT_{NAME}_REQUESTS,
// RATELIMIT_{NAME}_WINDOW_SEC and RATELIMIT_{NAME}_BURST.
var (
	// WriteLimit guards ledger writes, keyed by manager. Every write occupies
	// the manager's single in-flight slot until finality.
	WriteLimit = RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 5}

	// CredentialLimit guards issuing and verifying credentials.
	CredentialLimit = RateLimitConfig{RequestsPerWindow: 30, Window: time.Minute, Burst: 10}

	// ReadLimit guards public registry reads.
	ReadLimit = RateLimitConfig{RequestsPerWindow: 600, Window: time.Minute, Burst: 100}
)

func init() {
	WriteLimit = ParseRateLimitFromEnv("WRITE", WriteLimit)
	CredentialLimit = ParseRateLimitFromEnv("CREDENTIAL", CredentialLimit)
	ReadLimit = ParseRateLimitFromEnv("READ", ReadLimit)
}

// ParseRateLimitFromEnv reads RATELIMIT_{prefix}_* overrides on top of def.
// Invalid or non-positive values are ignored.
func ParseRateLimitFromEnv(prefix string, def RateLimitConfig) RateLimitConfig {
	cfg := def
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

func positiveEnv(name string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(name))
	return n, err == nil && n > 0
}

// KeyExtractor picks the bucket a request is counted against.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor extracts the client IP address from the request.
// It handles X-Forwarded-For and X-Real-IP headers for proxied requests.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// PrincipalKeyExtractor keys by the authenticated caller, if any.
func PrincipalKeyExtractor(r *http.Request) string {
	if p, ok := PrincipalFromContext(r.Context()); ok {
		return p.Subject
	}
	return ""
}

// PathValueKeyExtractor keys by a named route wildcard, e.g. a session id.
func PathValueKeyExtractor(name string) KeyExtractor {
	return func(r *http.Request) string {
		return r.PathValue(name)
	}
}

// CompositeKeyExtractor joins the non-empty keys of several extractors.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		var parts []string
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// rateLimiter manages rate limiters for different keys
type rateLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func (rl *rateLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	actual, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.rate, rl.burst))
	rl.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters whose bucket is full again, i.e. idle keys.
func (rl *rateLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = time.Now()

	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitMiddleware limits requests per key. Requests without a key pass.
func RateLimitMiddleware(config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	rl := &rateLimiter{
		rate:        rate.Limit(float64(config.RequestsPerWindow) / config.Window.Seconds()),
		burst:       config.Burst,
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			limiter := rl.getLimiter(key)
			if !limiter.Allow() {
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				retryAfter := max(int(delay.Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
				w.Header().Set("X-RateLimit-Window", config.Window.String())

				log.Warn("rate limit exceeded", "key", key, "endpoint", r.URL.Path, "retry_after", retryAfter)
				WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP creates a rate limiter that limits by IP address only.
func RateLimitByIP(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, IPKeyExtractor)
}

// RateLimitByPrincipal limits by authenticated caller, falling back to IP.
func RateLimitByPrincipal(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, func(r *http.Request) string {
		if k := PrincipalKeyExtractor(r); k != "" {
			return k
		}
		return IPKeyExtractor(r)
	})
}
