package cache

import (
	"context"
	"sync/atomic"
	"time"

	"oneplace/internal/metrics"
)

// LayeredCache L1 (本地) + L2 (远程)
// 读：L1 -> L2 -> miss，L2 命中回填 L1；写/删：两层都做。
// L2 出错按 miss 处理，缓存不可用不影响主流程。
type LayeredCache struct {
	L1 Cache
	L2 Cache

	// L1 回填的默认 TTL（L2 不支持 TTL 查询时使用）
	BackfillTTL time.Duration

	hitsL1     uint64
	hitsL2     uint64
	miss       uint64
	setOps     uint64
	delOps     uint64
	backfillL1 uint64
	errorsL2   uint64
}

type LayeredMetrics struct {
	HitsL1     uint64  `json:"hits_l1"`
	HitsL2     uint64  `json:"hits_l2"`
	Miss       uint64  `json:"miss"`
	SetOps     uint64  `json:"set_ops"`
	DelOps     uint64  `json:"del_ops"`
	BackfillL1 uint64  `json:"backfill_l1"`
	ErrorsL2   uint64  `json:"errors_l2"`
	HitRate    float64 `json:"hit_rate"`
}

// NewLayered l2 可为 nil（未配置 redis）
func NewLayered(l1, l2 Cache) *LayeredCache {
	return &LayeredCache{L1: l1, L2: l2, BackfillTTL: 30 * time.Second}
}

func (c *LayeredCache) Get(ctx context.Context, key string) (string, error) {
	if c.L1 != nil {
		if v, _ := c.L1.Get(ctx, key); v != "" {
			atomic.AddUint64(&c.hitsL1, 1)
			metrics.CacheRequests.WithLabelValues("l1_hit").Inc()
			return v, nil
		}
	}
	if c.L2 != nil {
		v, err := c.L2.Get(ctx, key)
		if err != nil {
			atomic.AddUint64(&c.errorsL2, 1)
			metrics.CacheRequests.WithLabelValues("l2_error").Inc()
		}
		if v != "" {
			atomic.AddUint64(&c.hitsL2, 1)
			metrics.CacheRequests.WithLabelValues("l2_hit").Inc()
			if c.L1 != nil {
				ttl := c.BackfillTTL
				if tf, ok := c.L2.(TTLFetcher); ok {
					if d, ok2 := tf.RemainingTTL(ctx, key); ok2 {
						ttl = d
					}
				}
				_ = c.L1.SetEX(ctx, key, v, ttl)
				atomic.AddUint64(&c.backfillL1, 1)
			}
			return v, nil
		}
	}
	atomic.AddUint64(&c.miss, 1)
	metrics.CacheRequests.WithLabelValues("miss").Inc()
	return "", nil
}

func (c *LayeredCache) SetEX(ctx context.Context, key, val string, ttl time.Duration) error {
	if c.L1 != nil {
		_ = c.L1.SetEX(ctx, key, val, ttl)
	}
	if c.L2 != nil {
		if err := c.L2.SetEX(ctx, key, val, ttl); err != nil {
			atomic.AddUint64(&c.errorsL2, 1)
		}
	}
	atomic.AddUint64(&c.setOps, 1)
	return nil
}

func (c *LayeredCache) Del(ctx context.Context, keys ...string) error {
	if c.L1 != nil {
		_ = c.L1.Del(ctx, keys...)
	}
	if c.L2 != nil {
		if err := c.L2.Del(ctx, keys...); err != nil {
			atomic.AddUint64(&c.errorsL2, 1)
		}
	}
	atomic.AddUint64(&c.delOps, 1)
	return nil
}

func (c *LayeredCache) SnapshotMetrics() LayeredMetrics {
	m := LayeredMetrics{
		HitsL1:     atomic.LoadUint64(&c.hitsL1),
		HitsL2:     atomic.LoadUint64(&c.hitsL2),
		Miss:       atomic.LoadUint64(&c.miss),
		SetOps:     atomic.LoadUint64(&c.setOps),
		DelOps:     atomic.LoadUint64(&c.delOps),
		BackfillL1: atomic.LoadUint64(&c.backfillL1),
		ErrorsL2:   atomic.LoadUint64(&c.errorsL2),
	}
	if total := m.HitsL1 + m.HitsL2 + m.Miss; total > 0 {
		m.HitRate = float64(m.HitsL1+m.HitsL2) / float64(total)
	}
	return m
}

// FlushLocal 清空 L1 全部条目；L1 不支持整体清空时返回 false
func (c *LayeredCache) FlushLocal() bool {
	f, ok := c.L1.(interface{ Flush() })
	if !ok {
		return false
	}
	f.Flush()
	return true
}

// ResetMetrics 重置计数（阶段性观测用）
func (c *LayeredCache) ResetMetrics() {
	for _, p := range []*uint64{&c.hitsL1, &c.hitsL2, &c.miss, &c.setOps, &c.delOps, &c.backfillL1, &c.errorsL2} {
		atomic.StoreUint64(p, 0)
	}
}
