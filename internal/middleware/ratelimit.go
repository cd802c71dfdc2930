package middleware

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nicolasdagostino/a615-sub000/internal/logger"
	"github.com/redis/go-redis/v9"
)

// WindowCounter increments the hit count of key within a fixed window.
type WindowCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

type RedisCounter struct {
	rdb redis.Scripter
}

func NewRedisCounter(rdb redis.Scripter) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

func (r *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	ms := window.Milliseconds()
	if ms <= 0 {
		ms = time.Minute.Milliseconds()
	}
	res, err := fixedWindowScript.Run(ctx, r.rdb, []string{key}, ms).Result()
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected rate limit script result %T", res)
	}
}

type RateLimitConfig struct {
	Counter WindowCounter
	Limit   int
	Window  time.Duration
	Prefix  string
	Logger  logger.Logger
}

// RateLimit rejects clients over Limit requests per Window with 429. It fails
// open: without a counter, or when the counter errors, requests pass.
func RateLimit(cfg RateLimitConfig) fiber.Handler {
	if cfg.Limit <= 0 {
		cfg.Limit = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if strings.TrimSpace(cfg.Prefix) == "" {
		cfg.Prefix = "rl"
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	return func(c *fiber.Ctx) error {
		if cfg.Counter == nil {
			return c.Next()
		}

		key := cfg.Prefix + ":" + c.IP()
		count, err := cfg.Counter.Incr(c.UserContext(), key, cfg.Window)
		if err != nil {
			cfg.Logger.Warnw("rate limiter unavailable, allowing request", "err", err)
			return c.Next()
		}

		remaining := cfg.Limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if count > int64(cfg.Limit) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(cfg.Window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests",
			})
		}
		return c.Next()
	}
}
