package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/rxdesk/pharmacy-api/internal/pkg/ctxlog"
	"github.com/rxdesk/pharmacy-api/internal/pkg/httputil"
	"github.com/rxdesk/pharmacy-api/internal/pkg/metrics"
)

// Middleware rejects clients that exceed l with 429 and a Retry-After header.
// Clients are keyed by scope and remote IP; run it after middleware.RealIP when behind a proxy.
// Limiter errors are logged and the request is let through.
func Middleware(l Limiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + clientIP(r)

			decision, err := l.Allow(r.Context(), key)
			if err != nil {
				ctxlog.FromContext(r.Context()).Warn("rate limiter unavailable", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !decision.Allowed {
				metrics.RateLimitRejections.WithLabelValues(scope).Inc()
				seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
				httputil.Error(w, http.StatusTooManyRequests, "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
