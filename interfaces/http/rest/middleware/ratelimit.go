package middleware

import (
	"net/http"
	"strconv"

	"agentdev-backend/pkg/auth"
	pkgerrors "agentdev-backend/pkg/errors"

	"go.uber.org/zap"
)

// RateLimit rejects callers over the per-IP limit with 429. Limiter errors
// are logged and the request is let through. Every limited response carries
// X-RateLimit-Limit, and X-RateLimit-Remaining/X-RateLimit-Reset when the
// limiter can report them.
func RateLimit(limiter auth.RateLimiter, perMinute int, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || perMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			allowed, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				logger.Error("Rate limiter error", zap.Error(err), zap.String("ip", ip))
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(perMinute))
			if remaining, reset, err := limiter.Remaining(r.Context(), ip); err != nil {
				logger.Debug("Rate limit quota unavailable", zap.Error(err), zap.String("ip", ip))
			} else {
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			}

			if !allowed {
				logger.Warn("Rate limit exceeded", zap.String("ip", ip))
				w.Header().Set("Retry-After", "60")
				errs.Handle(w, r, pkgerrors.NewRateLimitError(perMinute, "minute").
					WithDetail("retry_after", 60))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
