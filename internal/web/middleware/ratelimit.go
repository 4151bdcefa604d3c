package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/JonMunkholm/ledgerrecon/internal/core"
	"github.com/JonMunkholm/ledgerrecon/internal/logging"
)

// NewLimiter returns an in-memory limiter allowing perMinute requests per
// key each minute.
func NewLimiter(perMinute int) (*limiter.Limiter, error) {
	if perMinute <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", perMinute)
	}
	rate, err := limiter.NewRateFromFormatted(fmt.Sprintf("%d-M", perMinute))
	if err != nil {
		return nil, fmt.Errorf("rate limit %d/min: %w", perMinute, err)
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// RateLimit limits requests per client IP. Run it after TrustedRealIP so
// RemoteAddr already holds the client address. Limited requests are
// rejected with core.ErrRateLimited.
func RateLimit(l *limiter.Limiter, reject RejectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if ip := extractIP(r.RemoteAddr); ip != nil {
				key = ip.String()
			}

			lctx, err := l.Get(r.Context(), key)
			if err != nil {
				// A broken limiter store never blocks imports.
				logging.FromContext(r.Context()).Error("rate limit check failed", "ip", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				logging.FromContext(r.Context()).Warn("rate limit exceeded",
					"ip", key,
					"limit", lctx.Limit,
					"path", r.URL.Path,
				)
				h.Set("Retry-After", "60")
				reject(w, r, core.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
