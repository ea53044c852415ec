package middleware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"foodgram/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when Redis cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

// ErrNoLimiterStore is returned when a quota is checked without a Redis client.
var ErrNoLimiterStore = errors.New("rate limiter store unavailable")

// KeyFunc returns the identity a request is counted against.
type KeyFunc func(c *fiber.Ctx) string

// ByAuthor counts requests per authenticated author and falls back to the
// client IP for anonymous callers.
func ByAuthor(c *fiber.Ctx) string {
	if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
		return "author:" + strconv.FormatUint(uint64(uid), 10)
	}
	return "ip:" + c.IP()
}

// Quota is a fixed-window request budget stored in Redis under
// rl:<Resource>:<key>.
type Quota struct {
	Resource string
	Limit    int
	Window   time.Duration
	Policy   FailPolicy
	Key      KeyFunc
}

// Usage is the state of one key after a request was counted.
type Usage struct {
	Count   int64
	ResetIn time.Duration
}

// Remaining is how many requests the window still allows.
func (u Usage) Remaining(limit int) int {
	if left := int64(limit) - u.Count; left > 0 {
		return int(left)
	}
	return 0
}

func limiterBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true
	}
	return false
}

// Consume counts one request for key. The counter and its TTL are read in a
// single pipeline; a counter left without expiry gets the window reapplied.
func (q Quota) Consume(ctx context.Context, rdb *redis.Client, key string) (Usage, error) {
	if rdb == nil {
		return Usage{}, ErrNoLimiterStore
	}
	redisKey := fmt.Sprintf("rl:%s:%s", q.Resource, key)

	pipe := rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Usage{}, err
	}

	usage := Usage{Count: incr.Val(), ResetIn: ttl.Val()}
	if usage.ResetIn < 0 {
		if err := rdb.Expire(ctx, redisKey, q.Window).Err(); err != nil {
			return Usage{}, err
		}
		usage.ResetIn = q.Window
	}
	return usage, nil
}

// Handler enforces the quota. Rate limiting is disabled when APP_ENV is
// empty, "test" or "development".
func (q Quota) Handler(rdb *redis.Client) fiber.Handler {
	keyFn := q.Key
	if keyFn == nil {
		keyFn = ByAuthor
	}
	return func(c *fiber.Ctx) error {
		if limiterBypassed() {
			return c.Next()
		}
		quota := q
		if quota.Resource == "" {
			quota.Resource = c.Path()
		}

		usage, err := quota.Consume(c.UserContext(), rdb, keyFn(c))
		if err != nil {
			if quota.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit fail-closed",
					"resource", quota.Resource, "path", c.Path(), "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "Rate limit unavailable",
					Code:  models.CodeRateLimited,
				})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(quota.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(usage.Remaining(quota.Limit)))
		if usage.Count > int64(quota.Limit) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(usage.ResetIn.Round(time.Second).Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  models.CodeRateLimited,
			})
		}
		return c.Next()
	}
}

// RecipeCreationQuota caps how many recipes one author may publish per window.
func RecipeCreationQuota(limit int, window time.Duration) Quota {
	return Quota{Resource: "create_recipe", Limit: limit, Window: window, Policy: FailOpen, Key: ByAuthor}
}
