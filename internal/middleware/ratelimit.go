package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nichegen/nichegen/internal/auth"
	"github.com/nichegen/nichegen/internal/metrics"
)

// QuotaConsumer atomically spends one unit of a user's hourly quota.
// It reports false when the user is over the limit for the current window.
type QuotaConsumer interface {
	ConsumeQuota(ctx context.Context, userID string, limit int, now time.Time) (bool, error)
}

// RateLimitConfig holds dependencies for the hourly quota middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Quota   QuotaConsumer
	Metrics metrics.Recorder
	// QuotaFor returns the hourly request limit for a plan tier.
	QuotaFor func(isPaid bool) int
	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

// RateLimit enforces the per-user hourly generation quota.
// Must be applied after Identity and RequireAuth: it assumes a resolved
// caller and passes anonymous requests through untouched.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := auth.IdentityFromContext(r.Context())
			if id == nil {
				next.ServeHTTP(w, r)
				return
			}

			limit := cfg.QuotaFor(id.IsPaid)
			allowed, err := cfg.Quota.ConsumeQuota(r.Context(), id.UserID, limit, now())
			if err != nil {
				cfg.Logger.Error("quota check failed",
					slog.String("error", err.Error()),
					slog.String("user_id", id.UserID),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				// Fail open - allow request
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("user_id", id.UserID),
					slog.Bool("is_paid", id.IsPaid),
					slog.Int("limit", limit),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncRateLimited()

				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
