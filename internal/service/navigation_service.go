package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"oneplace/internal/config"
	"oneplace/internal/domain/model"
	"oneplace/internal/logging"
	"oneplace/internal/metrics"
	"oneplace/internal/pkg/cache"

	"go.uber.org/zap"
)

// ErrStoreUnavailable navigation 表无法读取
var ErrStoreUnavailable = errors.New("navigation store unavailable")

const navigationTreeKey = "navigation:tree"

// NodeReader 组装所需的只读存储接口，由 dao.NavigationDAO 实现
type NodeReader interface {
	ListAll(ctx context.Context) ([]model.NavigationNode, error)
}

type NavigationService struct {
	Reader NodeReader
	Cache  cache.Cache // 可为 nil
	Logger *logging.Logger
	Mode   string
	TTL    time.Duration // <=0 不缓存
}

func NewNavigationService(r NodeReader, c cache.Cache, l *logging.Logger, mode string, ttl time.Duration) *NavigationService {
	if l == nil {
		l = logging.Nop()
	}
	if mode == "" {
		mode = config.NavigationModeTree
	}
	return &NavigationService{Reader: r, Cache: c, Logger: l, Mode: mode, TTL: ttl}
}

// Navigation 按模式返回响应体：static 为单个 MenuItem，tree 为根节点列表
func (s *NavigationService) Navigation(ctx context.Context) (interface{}, error) {
	if s.Mode == config.NavigationModeStatic {
		return s.Static(ctx)
	}
	return s.Tree(ctx)
}

// Static 与旧版行为一致：查询 navigation 表但丢弃结果，始终返回固定的 Stammdaten 树。
func (s *NavigationService) Static(ctx context.Context) (model.MenuItem, error) {
	start := time.Now()
	if _, err := s.load(ctx); err != nil {
		return model.MenuItem{}, err
	}
	metrics.NavigationAssembleDuration.WithLabelValues(config.NavigationModeStatic, "store").Observe(time.Since(start).Seconds())
	return model.StammdatenMenu(), nil
}

// Tree 从 navigation 表组装导航森林；孤儿节点提升为根。
func (s *NavigationService) Tree(ctx context.Context) ([]model.MenuItem, error) {
	start := time.Now()
	lg := logging.FromContext(ctx, s.Logger)
	if items, ok := s.cached(ctx, lg); ok {
		metrics.NavigationAssembleDuration.WithLabelValues(config.NavigationModeTree, "cache").Observe(time.Since(start).Seconds())
		return items, nil
	}
	nodes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	tree := BuildMenuTree(nodes)
	for _, id := range tree.Orphans {
		lg.Warn("navigation_orphan_promoted", zap.Int64("id", id))
		metrics.NavigationOrphans.Inc()
	}
	if len(tree.CycleRoots) > 0 {
		lg.Error("navigation_cycle_broken", zap.Int64s("ids", tree.CycleRoots))
	}
	s.store(ctx, lg, tree.Items)
	metrics.NavigationAssembleDuration.WithLabelValues(config.NavigationModeTree, "store").Observe(time.Since(start).Seconds())
	return tree.Items, nil
}

// Invalidate 删除缓存的导航树（/cache/reset?flush=1 或 kafka 失效通知）
func (s *NavigationService) Invalidate(ctx context.Context) {
	if s.Cache != nil {
		_ = s.Cache.Del(ctx, navigationTreeKey)
	}
}

func (s *NavigationService) load(ctx context.Context) ([]model.NavigationNode, error) {
	nodes, err := s.Reader.ListAll(ctx)
	if err != nil {
		metrics.NavigationStoreErrors.Inc()
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	metrics.NavigationNodes.Set(float64(len(nodes)))
	return nodes, nil
}

func (s *NavigationService) cached(ctx context.Context, lg *zap.Logger) ([]model.MenuItem, bool) {
	if s.Cache == nil || s.TTL <= 0 {
		return nil, false
	}
	v, _ := s.Cache.Get(ctx, navigationTreeKey)
	if v == "" {
		return nil, false
	}
	var items []model.MenuItem
	if err := json.Unmarshal([]byte(v), &items); err != nil || items == nil {
		// 缓存损坏时回源
		lg.Warn("navigation_cache_corrupt", zap.Error(err))
		return nil, false
	}
	return items, true
}

func (s *NavigationService) store(ctx context.Context, lg *zap.Logger, items []model.MenuItem) {
	if s.Cache == nil || s.TTL <= 0 {
		return
	}
	b, err := json.Marshal(items)
	if err != nil {
		lg.Warn("navigation_cache_encode_failed", zap.Error(err))
		return
	}
	_ = s.Cache.SetEX(ctx, navigationTreeKey, string(b), s.TTL)
}
