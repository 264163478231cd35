package cache

import (
	"context"
	"sync"
	"time"
)

// Cache 统一缓存接口，value 统一为 string（JSON 编解码由业务侧处理）
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEX(ctx context.Context, key, val string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// TTLFetcher 可选：返回剩余 TTL，LayeredCache 回填 L1 时透传
type TTLFetcher interface {
	RemainingTTL(ctx context.Context, key string) (time.Duration, bool)
}

type item struct {
	val string
	exp time.Time
}

func (it item) expired(now time.Time) bool { return !it.exp.IsZero() && now.After(it.exp) }

// Local 进程内带 TTL 的缓存（L1）
type Local struct {
	mu   sync.RWMutex
	data map[string]item
	now  func() time.Time
}

func NewLocal() *Local { return &Local{data: make(map[string]item), now: time.Now} }

func (c *Local) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	it, ok := c.data[key]
	c.mu.RUnlock()
	if !ok || it.expired(c.now()) {
		return "", nil
	}
	return it.val, nil
}

// SetEX ttl<=0 表示不过期
func (c *Local) SetEX(_ context.Context, key, val string, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.data[key] = item{val: val, exp: exp}
	c.mu.Unlock()
	return nil
}

func (c *Local) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.mu.Unlock()
	return nil
}

func (c *Local) RemainingTTL(_ context.Context, key string) (time.Duration, bool) {
	c.mu.RLock()
	it, ok := c.data[key]
	c.mu.RUnlock()
	now := c.now()
	if !ok || it.exp.IsZero() || it.expired(now) {
		return 0, false
	}
	return it.exp.Sub(now), true
}

// Flush 清空全部条目
func (c *Local) Flush() {
	c.mu.Lock()
	c.data = make(map[string]item)
	c.mu.Unlock()
}
