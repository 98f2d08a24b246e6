package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dailymemedigest/memefactory/pkg/cache"
)

// redisClient connects to MEMEFACTORY_TEST_REDIS or skips.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("MEMEFACTORY_TEST_REDIS")
	if url == "" {
		t.Skip("MEMEFACTORY_TEST_REDIS not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatal(err)
	}
	c := redis.NewClient(opts)
	t.Cleanup(func() { c.Close() })
	return c
}

type prefixKeyer struct {
	cache.DefaultKeyer
	prefix string
}

func (k prefixKeyer) RateKey(scope, client string) string {
	return k.prefix + k.DefaultKeyer.RateKey(scope, client)
}

func TestRedisSlidingWindow(t *testing.T) {
	client := redisClient(t)
	keyer := prefixKeyer{prefix: "test-" + uuid.NewString() + ":"}
	t.Cleanup(func() { client.Del(context.Background(), keyer.RateKey("subscribe", "10.0.0.1")) })

	checkSlidingWindow(t, func(r Rule, opts ...Option) Limiter {
		return NewRedis(client, r, append(opts, WithKeyer(keyer))...)
	})
}

func TestRedisUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()
	if _, err := NewRedis(client, PerMinute(1)).Allow(context.Background(), "s", "c"); err == nil {
		t.Error("Allow() against an unreachable server should fail")
	}
}
