package redisrepo

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Client struct{ *redis.Client }

// New addr 为空时返回 nil，调用方据此跳过 L2 缓存
func New(cfg Config) *Client {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	return &Client{rdb}
}

// InstrumentTracing 开启 otel 后注册 tracing hook
func (c *Client) InstrumentTracing() error { return redisotel.InstrumentTracing(c.Client) }

func (c *Client) Ping(ctx context.Context) error { return c.Client.Ping(ctx).Err() }

func (c *Client) Close() error { return c.Client.Close() }

func (c *Client) SetTTL(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, val, ttl).Err()
}

// Get key 不存在返回 ("", nil)
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	res, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return res, err
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// TTL 返回剩余过期时间；不存在或永久返回 false
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, bool) {
	d, err := c.Client.TTL(ctx, key).Result()
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
