package handler

import (
	"oneplace/internal/logging"
	"oneplace/internal/pkg/cache"
	"oneplace/internal/service"
)

// Dependencies handler 层依赖集合
type Dependencies struct {
	Navigation *service.NavigationService
	Cache      *cache.LayeredCache // 可为 nil
	Logger     *logging.Logger
}

// HandlerSet 聚合业务 handler，供 router 使用
type HandlerSet struct {
	Hello      *HelloHandler
	Navigation *NavigationHandler
	Cache      *CacheHandler
}

func NewHandlerSet(d Dependencies) *HandlerSet {
	return &HandlerSet{
		Hello:      NewHelloHandler(),
		Navigation: NewNavigationHandler(d),
		Cache:      NewCacheHandler(d),
	}
}
