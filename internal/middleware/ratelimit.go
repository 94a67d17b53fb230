package middleware

import (
    "context"
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/golang/glog"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/rental-listings/internal/config"
)

// bucketScript takes one token from the bucket at KEYS[1] after adding one
// token per elapsed interval.  It replies {allowed, tokens left, ms until
// the next token}.
var bucketScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local state = redis.call('HMGET', KEYS[1], 'tokens', 'at')
local tokens = tonumber(state[1]) or capacity
local at = tonumber(state[2]) or now
local refills = math.floor(math.max(0, now - at) / interval)
if refills > 0 then
    tokens = math.min(capacity, tokens + refills)
    at = at + refills * interval
end
local allowed, wait = 0, 0
if tokens > 0 then
    allowed = 1
    tokens = tokens - 1
else
    wait = math.max(0, interval - (now - at))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'at', at)
redis.call('EXPIRE', KEYS[1], ARGV[4])
return {allowed, tokens, wait}
`)

type take struct {
    allowed   bool
    remaining int64
    wait      time.Duration
}

func takeToken(ctx context.Context, rdb *redis.Client, cfg config.RateLimit, key string) (take, error) {
    reply, err := bucketScript.Run(ctx, rdb, []string{key},
        time.Now().UnixMilli(),
        cfg.Capacity,
        cfg.RefillInterval.Milliseconds(),
        int64(cfg.TTL/time.Second),
    ).Int64Slice()
    if err != nil {
        return take{}, err
    }
    if len(reply) != 3 {
        return take{}, fmt.Errorf("unexpected reply %v", reply)
    }
    return take{allowed: reply[0] == 1, remaining: reply[1], wait: time.Duration(reply[2]) * time.Millisecond}, nil
}

// NewTokenBucket limits requests with a token bucket kept in Redis, so every
// server instance shares the same budget per key.  Without Redis, or when
// disabled, requests pass through; Redis errors also let requests pass.
func NewTokenBucket(cfg config.RateLimit, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg.Prefix, c)
            t, err := takeToken(c.Request().Context(), rdb, cfg, key)
            if err != nil {
                glog.Warningf("ratelimit: %s: %v", key, err)
                return next(c)
            }
            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(t.remaining, 10))
            if !t.allowed {
                secs := int(math.Ceil(t.wait.Seconds()))
                h.Set("Retry-After", strconv.Itoa(secs))
                glog.V(1).Infof("ratelimit: block %s for %ds", key, secs)
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "too many requests",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

// rateKey buckets by IP, client session and route.  Requests without a
// client session share the "anon" bucket of their IP.
func rateKey(prefix string, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    cid := "anon"
    if cl := CurrentClient(c); cl != nil {
        cid = cl.ID
    }
    return strings.Join([]string{prefix, ip, cid, c.Request().Method + " " + c.Path()}, ":")
}
