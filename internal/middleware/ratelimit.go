package middleware

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"srefhub/internal/models"
	"srefhub/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens when Redis cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

var errNoStore = errors.New("rate limit store not configured")

// Limiter is a fixed-window counter per caller kept in Redis under
// rl:{name}:{caller}.
type Limiter struct {
	rdb    *redis.Client
	name   string
	limit  int
	window time.Duration
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

func NewLimiter(rdb *redis.Client, name string, limit int, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, name: name, limit: limit, window: window}
}

// limitingDisabled is true for test, development and stress runs so local
// work and load tests are never throttled. An unset APP_ENV counts as
// development.
func limitingDisabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development", "stress":
		return true
	}
	return false
}

// Allow counts one request for caller.
func (l *Limiter) Allow(ctx context.Context, caller string) (Decision, error) {
	if limitingDisabled() {
		return Decision{Allowed: true, Remaining: l.limit}, nil
	}
	if l.rdb == nil {
		return Decision{}, errNoStore
	}

	key := "rl:" + l.name + ":" + caller
	// INCR and EXPIRE NX share a transaction so no counter is left without a TTL.
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		observability.RedisErrorRate.WithLabelValues("ratelimit").Inc()
		return Decision{}, err
	}

	count := int(incr.Val())
	reset := ttl.Val()
	if reset <= 0 {
		reset = l.window
	}
	return Decision{
		Allowed:   count <= l.limit,
		Remaining: max(l.limit-count, 0),
		ResetIn:   reset,
	}, nil
}

// callerKey identifies the caller by user when authenticated and by IP otherwise.
func callerKey(c *fiber.Ctx) string {
	if uid := CurrentUserID(c); uid != 0 {
		return "user:" + strconv.FormatUint(uint64(uid), 10)
	}
	return "ip:" + c.IP()
}

// RateLimit allows limit requests per window for each caller under name,
// failing open when Redis is down.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, name, FailOpen)
}

// RateLimitWithPolicy is RateLimit with an explicit FailPolicy. Responses
// carry X-RateLimit-* headers whenever a decision was made.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, name string, policy FailPolicy) fiber.Handler {
	limiter := NewLimiter(rdb, name, limit, window)
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		decision, err := limiter.Allow(ctx, callerKey(c))
		if err != nil {
			if policy == FailOpen {
				return c.Next()
			}
			Logger.WarnContext(ctx, "rate limit store unavailable, failing closed",
				slog.String("limiter", name), slog.String("error", err.Error()))
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
				Error:      "Rate limit unavailable",
				StatusCode: fiber.StatusServiceUnavailable,
			})
		}

		resetSeconds := strconv.Itoa(int((decision.ResetIn + time.Second - 1) / time.Second))
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Set("X-RateLimit-Reset", resetSeconds)

		if !decision.Allowed {
			c.Set(fiber.HeaderRetryAfter, resetSeconds)
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error:      "Too many requests, please try again later",
				StatusCode: fiber.StatusTooManyRequests,
			})
		}
		return c.Next()
	}
}
