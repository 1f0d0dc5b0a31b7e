package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-catalog/internal/config"
)

// limiterScript refills the bucket stored at KEYS[1] for the intervals that
// have elapsed and takes one token if one is left. It returns
// {allowed, remaining, retry_after_ms}.
var limiterScript = redis.NewScript(`
local now, cap, per, every, ttl =
  tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])

local tokens, stamp = unpack(redis.call('HMGET', KEYS[1], 'tokens', 'stamp'))
tokens, stamp = tonumber(tokens), tonumber(stamp)
if not tokens or not stamp then
  tokens, stamp = cap, now
end

local steps = math.floor(math.max(now - stamp, 0) / every)
if steps > 0 then
  tokens = math.min(cap, tokens + steps * per)
  stamp = stamp + steps * every
end

local ok, wait = 0, 0
if tokens >= 1 then
  ok, tokens = 1, tokens - 1
else
  wait = math.max(every - (now - stamp), 0)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'stamp', stamp)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, tokens, wait}
`)

// bucketResult is the outcome of taking one token.
type bucketResult struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

// bucket takes one token for key.
type bucket interface {
	take(ctx context.Context, key string, now time.Time) (bucketResult, error)
}

type redisBucket struct {
	cfg config.RateLimitConfig
	rdb redis.Scripter
}

func (b redisBucket) take(ctx context.Context, key string, now time.Time) (bucketResult, error) {
	args := []any{
		now.UnixMilli(),
		b.cfg.Capacity,
		b.cfg.RefillTokens,
		b.cfg.RefillInterval.Milliseconds(),
		int64(b.cfg.TTL / time.Second),
	}
	vals, err := limiterScript.Run(ctx, b.rdb, []string{key}, args...).Result()
	if err != nil {
		return bucketResult{}, err
	}
	arr, ok := vals.([]any)
	if !ok || len(arr) != 3 {
		return bucketResult{}, fmt.Errorf("unexpected script result %#v", vals)
	}
	return bucketResult{
		allowed:   asInt64(arr[0]) == 1,
		remaining: asInt64(arr[1]),
		retry:     time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, nil
}

// NewTokenBucket returns a per-key token bucket limiter backed by Redis.
// It is a pass-through when disabled or when rdb is nil. Redis errors fail
// open so the API stays available without Redis.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, logger *slog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return tokenBucket(cfg, redisBucket{cfg: cfg, rdb: rdb}, logger)
}

func tokenBucket(cfg config.RateLimitConfig, b bucket, logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			ctx := c.Request().Context()

			res, err := b.take(ctx, key, time.Now())
			if err != nil {
				logger.WarnContext(ctx, "rate limiter unavailable", slog.String("key", key), slog.String("error", err.Error()))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))

			if !res.allowed {
				secs := max(int(math.Ceil(res.retry.Seconds())), 0)
				h.Set("Retry-After", strconv.Itoa(secs))
				if cfg.Debug {
					logger.InfoContext(ctx, "rate limited", slog.String("key", key), slog.Duration("retry", res.retry))
				}
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "rate limit exceeded",
					"retry_after": secs,
				})
			}

			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			return next(c)
		}
	}
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	parts := []string{cfg.Prefix}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := userID(c)
	route := c.Request().Method + " " + c.Path()

	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", uid)
	case "route":
		parts = append(parts, "route", route)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", uid)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	case "user_route":
		parts = append(parts, "user", uid, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", uid, "route", route)
	}
	return strings.Join(parts, ":")
}
