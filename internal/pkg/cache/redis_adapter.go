package cache

import (
	"context"
	"time"

	redisrepo "oneplace/internal/repository/redis"
)

// RedisAdapter 将 redis 客户端适配为 Cache（L2）
type RedisAdapter struct{ c *redisrepo.Client }

func NewRedisAdapter(c *redisrepo.Client) *RedisAdapter { return &RedisAdapter{c: c} }

func (r *RedisAdapter) Get(ctx context.Context, key string) (string, error) {
	return r.c.Get(ctx, key)
}

func (r *RedisAdapter) SetEX(ctx context.Context, key, val string, ttl time.Duration) error {
	return r.c.SetTTL(ctx, key, val, ttl)
}

func (r *RedisAdapter) Del(ctx context.Context, keys ...string) error {
	return r.c.Del(ctx, keys...)
}

func (r *RedisAdapter) RemainingTTL(ctx context.Context, key string) (time.Duration, bool) {
	return r.c.TTL(ctx, key)
}
