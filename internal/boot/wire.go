package boot

import (
	"time"

	"oneplace/internal/config"
	"oneplace/internal/discovery/etcd"
	"oneplace/internal/logging"
	"oneplace/internal/metrics"
	"oneplace/internal/mq/kafka"
	"oneplace/internal/pkg/cache"
	"oneplace/internal/repository/dao"
	redisrepo "oneplace/internal/repository/redis"
	httpSrv "oneplace/internal/server/http"
	"oneplace/internal/server/http/handler"
	"oneplace/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"gorm.io/gorm"
)

// ProvideConfig wraps config.Load for wire with external path param
func ProvideConfig(path string) (*config.Config, error) { return config.Load(path) }

// ProvideLayeredCache L1 本地；配置了 redis 才挂 L2
func ProvideLayeredCache(c *config.Config, r *redisrepo.Client) *cache.LayeredCache {
	var l2 cache.Cache
	if r != nil {
		l2 = cache.NewRedisAdapter(r)
	}
	lc := cache.NewLayered(cache.NewLocal(), l2)
	if c.Cache.LocalTTLSecs > 0 {
		lc.BackfillTTL = time.Duration(c.Cache.LocalTTLSecs) * time.Second
	}
	return lc
}

func ProvideNavigationService(c *config.Config, d *dao.NavigationDAO, lc *cache.LayeredCache, l *logging.Logger) *service.NavigationService {
	return service.NewNavigationService(d, lc, l, c.Navigation.Mode, time.Duration(c.Cache.TTLSeconds)*time.Second)
}

func ProvideHandlerSet(nav *service.NavigationService, lc *cache.LayeredCache, l *logging.Logger) *handler.HandlerSet {
	return handler.NewHandlerSet(handler.Dependencies{Navigation: nav, Cache: lc, Logger: l})
}

// ProvideHealthChecker 只有 db 为必需依赖；nil 客户端不注册，避免 typed nil 进入接口
func ProvideHealthChecker(db *gorm.DB, r *redisrepo.Client, k *kafka.Producer, e *etcd.Client) *httpSrv.HealthChecker {
	hc := httpSrv.NewHealthChecker().Add("db", httpSrv.DBPinger{DB: db}, 500*time.Millisecond, metrics.DBUp, true)
	if r != nil {
		hc.Add("redis", r, 300*time.Millisecond, metrics.RedisUp, false)
	}
	if k != nil {
		hc.Add("kafka", k, 500*time.Millisecond, metrics.KafkaUp, false)
	}
	if e != nil {
		hc.Add("etcd", e, 500*time.Millisecond, metrics.EtcdUp, false)
	}
	return hc
}

// ProvideRouter 装配路由，gin mode 取自配置
func ProvideRouter(c *config.Config, l *logging.Logger, h *handler.HandlerSet, hc *httpSrv.HealthChecker, sender *kafka.AccessAsyncSender) *gin.Engine {
	if c.HTTP.Mode != "" {
		gin.SetMode(c.HTTP.Mode)
	}
	return httpSrv.NewRouter(l, h, hc, sender)
}

var ProviderSet = wire.NewSet(
	ProvideConfig,
	NewLogger,
	NewDatabase,
	NewRedis,
	NewKafkaProducer,
	NewAccessSender,
	NewInvalidationConsumer,
	NewEtcd,
	ProvideLayeredCache,
	// DAO
	dao.NewNavigationDAO,
	// Service
	ProvideNavigationService,
	ProvideHandlerSet,
	ProvideHealthChecker,
	ProvideRouter,
	NewApp,
)
