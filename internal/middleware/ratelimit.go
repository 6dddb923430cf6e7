package middleware

import (
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog/log"

    "github.com/iliyamo/turismo-reservas/internal/config"
)

// bucketScript keeps {tokens, refilled_at} in the hash at KEYS[1].
// ARGV: now_ms, capacity, refill, interval_ms, ttl_ms.
// Reply: {allowed (0|1), tokens left, retry after ms}.
var bucketScript = redis.NewScript(`
local now, cap, refill, every, ttl =
    tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local h = redis.call('HMGET', KEYS[1], 'tokens', 'refilled_at')
local tokens, at = tonumber(h[1]), tonumber(h[2])
if not tokens or not at then
    tokens, at = cap, now
end
if every > 0 and refill > 0 and now > at then
    local n = math.floor((now - at) / every)
    if n > 0 then
        tokens = math.min(cap, tokens + n * refill)
        at = at + n * every
    end
end
local ok, wait = 0, 0
if tokens > 0 then
    ok, tokens = 1, tokens - 1
else
    wait = math.max(0, every - (now - at))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'refilled_at', at)
redis.call('PEXPIRE', KEYS[1], ttl)
return {ok, tokens, wait}
`)

// bucketReply is the decoded result of one bucketScript call.
type bucketReply struct {
    Allowed   bool
    Remaining int64
    RetryMs   int64
}

// parseBucketReply decodes the script result.  go-redis hands Lua
// integers back as int64, but other Scripter implementations may not.
func parseBucketReply(v interface{}) (bucketReply, bool) {
    arr, ok := v.([]interface{})
    if !ok || len(arr) != 3 {
        return bucketReply{}, false
    }
    return bucketReply{
        Allowed:   replyInt(arr[0]) == 1,
        Remaining: replyInt(arr[1]),
        RetryMs:   replyInt(arr[2]),
    }, true
}

func replyInt(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int32:
        return int64(t)
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case float32:
        return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil {
            return n
        }
    }
    return 0
}

// NewTokenBucket limits requests per key with a token bucket kept in
// Redis.  It passes everything through when disabled or when rdb is
// nil, and fails open on Redis errors.
func NewTokenBucket(cfg config.RateLimitConfig, rdb redis.Scripter) echo.MiddlewareFunc {
    if !cfg.Enabled || isNilScripter(rdb) {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    limit := strconv.Itoa(cfg.Capacity)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            raw, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                cfg.TTL.Milliseconds(),
            ).Result()
            if err != nil {
                log.Warn().Err(err).Str("key", key).Msg("ratelimit: redis unavailable, allowing request")
                return next(c)
            }
            reply, ok := parseBucketReply(raw)
            if !ok {
                log.Warn().Str("key", key).Str("reply", fmt.Sprint(raw)).Msg("ratelimit: bad script reply")
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", limit)
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(reply.Remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if reply.Allowed {
                return next(c)
            }

            secs := int(math.Ceil(float64(reply.RetryMs) / 1000))
            h.Set("Retry-After", strconv.Itoa(secs))
            if cfg.Debug {
                log.Debug().Str("key", key).Int64("retry_ms", reply.RetryMs).Msg("ratelimit: blocked")
            }
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "too_many_requests",
                "message":     "rate limit exceeded",
                "retry_after": secs,
            })
        }
    }
}

func isNilScripter(s redis.Scripter) bool {
    if s == nil {
        return true
    }
    c, ok := s.(*redis.Client)
    return ok && c == nil
}

// keyParts lists, per strategy, which request attributes make up the
// bucket key.  Unknown strategies use all three.
var keyParts = map[string][]string{
    "ip":         {"ip"},
    "user":       {"user"},
    "route":      {"route"},
    "ip_user":    {"ip", "user"},
    "ip_route":   {"ip", "route"},
    "user_route": {"user", "route"},
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    values := map[string]string{
        "ip":    ip,
        "user":  currentUserID(c),
        "route": c.Request().Method + " " + c.Path(),
    }
    names, ok := keyParts[strings.ToLower(cfg.KeyStrategy)]
    if !ok {
        names = []string{"ip", "user", "route"}
    }
    parts := []string{cfg.Prefix}
    for _, n := range names {
        parts = append(parts, n, values[n])
    }
    return strings.Join(parts, ":")
}
