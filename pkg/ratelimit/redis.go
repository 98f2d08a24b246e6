package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow trims the bucket to the window, then records the request
// if it fits. It returns {allowed, count, oldest score}.
var slidingWindow = redis.NewScript(`
local key, now, window, limit, member = KEYS[1], tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), ARGV[4]
redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)
if count >= limit then
  local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
  return {0, count, tonumber(oldest[2])}
end
redis.call("ZADD", key, now, member)
redis.call("PEXPIRE", key, window)
return {1, count + 1, now}
`)

// Redis is a sliding-window limiter shared through a Redis server.
type Redis struct {
	rule   Rule
	cfg    config
	client redis.Scripter
}

// NewRedis returns a limiter storing its buckets through client.
func NewRedis(client redis.Scripter, rule Rule, opts ...Option) *Redis {
	return &Redis{rule: rule, cfg: newConfig(opts), client: client}
}

// Allow implements [Limiter].
func (r *Redis) Allow(ctx context.Context, scope, client string) (Decision, error) {
	if r.rule.Unlimited() {
		return Decision{Allowed: true, Remaining: -1}, nil
	}
	now := r.cfg.now().UnixMilli()
	window := r.rule.Window.Milliseconds()
	key := r.cfg.keyer.RateKey(scope, client)

	res, err := slidingWindow.Run(ctx, r.client, []string{key},
		now, window, r.rule.Limit, strconv.FormatInt(now, 10)+"-"+uuid.NewString()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("rate limit %s: unexpected reply %v", key, res)
	}
	if res[0] == 1 {
		return Decision{Allowed: true, Remaining: r.rule.Limit - int(res[1])}, nil
	}
	retry := time.Duration(res[2]+window-now) * time.Millisecond
	return Decision{RetryAfter: max(retry, time.Millisecond)}, nil
}

var _ Limiter = (*Redis)(nil)
