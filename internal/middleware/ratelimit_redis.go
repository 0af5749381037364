package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix はレート制限カウンタのキー接頭辞。
const redisKeyPrefix = "jobboard:ratelimit:"

// redisTimeout はRedis呼び出し1回あたりの上限時間。
const redisTimeout = 250 * time.Millisecond

// 固定ウィンドウカウンタ。初回INCRでウィンドウ長の有効期限を設定する。
const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RedisLimiter は複数のAPIインスタンス間でカウンタを共有するWindowLimiter。
// Redisに到達できない場合はリクエストを通す（fail open）。
type RedisLimiter struct {
	client redis.Cmdable
	script *redis.Script
}

// NewRedisLimiter はRedisLimiterを生成する。
func NewRedisLimiter(client redis.Cmdable) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		script: redis.NewScript(rateLimitScript),
	}
}

// Allow はキーのカウンタを1増やし、window内の上限以内であればtrueを返す。
func (l *RedisLimiter) Allow(key string, limit int, window time.Duration) bool {
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}

	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	allowed, err := l.script.Run(ctx, l.client, []string{redisKeyPrefix + key}, ttl, limit).Int64()
	if err != nil {
		slog.Warn("rate limit backend unavailable, allowing request",
			slog.String("error", err.Error()),
		)
		return true
	}
	return allowed == 1
}

var _ WindowLimiter = (*RedisLimiter)(nil)
var _ WindowLimiter = (*LocalLimiter)(nil)
