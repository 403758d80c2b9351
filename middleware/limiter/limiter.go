package limiter

import (
	"context"
	"log/slog"

	"github.com/sweetpotato0/keyara/errors"
	"github.com/sweetpotato0/keyara/middleware"
	"github.com/sweetpotato0/keyara/pkg/logging"
)

// GlobalKey is used when a request carries no client key.
const GlobalKey = "global"

// Limiter decides whether one more request for key fits the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimiter middleware rejects requests over the limiter's budget
type RateLimiter struct {
	limiter Limiter
	logger  *slog.Logger
}

// NewRateLimiter creates a rate limiting middleware. Limiter errors let the
// request through and are logged.
func NewRateLimiter(limiter Limiter, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = logging.WithComponent("limiter")
	}
	return &RateLimiter{limiter: limiter, logger: logger}
}

// Name returns the middleware name
func (m *RateLimiter) Name() string {
	return "RateLimiter"
}

// Execute checks rate limit
func (m *RateLimiter) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.limiter == nil {
		return next(ctx)
	}
	key := ctx.String(middleware.MetadataClientKey)
	if key == "" {
		key = GlobalKey
	}

	ok, err := m.limiter.Allow(ctx.Context(), key)
	if err != nil {
		m.logger.WarnContext(ctx.Context(), "rate limiter unavailable, allowing request",
			"key", key, "error", err)
		return next(ctx)
	}
	if !ok {
		return errors.ErrRateLimitExceeded
	}
	return next(ctx)
}
