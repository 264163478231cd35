package boot

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"oneplace/internal/config"
	"oneplace/internal/discovery/etcd"
	"oneplace/internal/domain/model"
	"oneplace/internal/logging"
	"oneplace/internal/metrics"
	"oneplace/internal/mq/kafka"
	"oneplace/internal/repository/dao"
	"oneplace/internal/repository/database"
	redisrepo "oneplace/internal/repository/redis"
	"oneplace/internal/repository/seed"
	httpSrv "oneplace/internal/server/http"
	"oneplace/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	kafkaGo "github.com/segmentio/kafka-go"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// etcd 注册使用的服务名
const serviceName = "oneplace"

type App struct {
	Config *config.Config
	Logger *logging.Logger
	DB     *gorm.DB
	Redis  *redisrepo.Client
	Kafka  *kafka.Producer
	Etcd   *etcd.Client
	HTTP   *gin.Engine

	AsyncAccessSender *kafka.AccessAsyncSender
	Invalidator       *kafka.Consumer

	regMu      sync.Mutex
	serviceKey string
	leaseID    clientv3.LeaseID
	tracerProv *trace.TracerProvider
	stopCh     chan struct{} // 心跳协程关闭
	closeOnce  sync.Once
}

func NewLogger(c *config.Config) (*logging.Logger, error) {
	return logging.New(c.Log.Level, c.Log.Format)
}

func NewDatabase(c *config.Config, l *logging.Logger) (*gorm.DB, error) {
	return database.New(database.Config{
		Driver:  c.Database.Driver,
		DSN:     c.Database.DSN,
		MaxOpen: c.Database.MaxOpen,
		MaxIdle: c.Database.MaxIdle,
		Logger:  logging.NewGormLogger(l, c.Database.LogLevel),
	})
}

func NewRedis(c *config.Config) *redisrepo.Client {
	return redisrepo.New(redisrepo.Config{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB,
		DialTimeout:  time.Duration(c.Redis.DialTimeoutMS) * time.Millisecond,
		ReadTimeout:  time.Duration(c.Redis.ReadTimeoutMS) * time.Millisecond,
		WriteTimeout: time.Duration(c.Redis.WriteTimeoutMS) * time.Millisecond,
	})
}

func NewKafkaProducer(c *config.Config) *kafka.Producer {
	if !c.KafkaEnabled() {
		return nil
	}
	return kafka.NewProducer(kafka.Config{Brokers: c.Kafka.Brokers, Topic: c.Kafka.AccessTopic})
}

// NewAccessSender producer 为 nil 时访问日志只写 zap
func NewAccessSender(c *config.Config, p *kafka.Producer, l *logging.Logger) *kafka.AccessAsyncSender {
	if p == nil {
		return nil
	}
	a := c.Kafka.Async
	return kafka.NewAccessAsyncSender(p, l, a.QueueSize, a.Workers, a.MaxBatch, time.Duration(a.MaxWaitMS)*time.Millisecond)
}

// NewInvalidationConsumer 每个实例独立 group，保证每个实例都收到失效通知
func NewInvalidationConsumer(c *config.Config, l *logging.Logger) *kafka.Consumer {
	if len(c.Kafka.Brokers) == 0 || c.Kafka.InvalidateTopic == "" {
		return nil
	}
	return kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: c.Kafka.Brokers,
		GroupID: serviceName + "-nav-invalidate-" + uuid.New().String(),
		Topics:  []string{c.Kafka.InvalidateTopic},
	}, l)
}

func NewEtcd(c *config.Config) (*etcd.Client, error) {
	return etcd.New(etcd.Config{Endpoints: c.Etcd.Endpoints, TTL: c.Etcd.TTL})
}

func NewApp(c *config.Config, l *logging.Logger, db *gorm.DB, r *redisrepo.Client, k *kafka.Producer, sender *kafka.AccessAsyncSender, inv *kafka.Consumer, e *etcd.Client, nav *dao.NavigationDAO, navSvc *service.NavigationService, engine *gin.Engine) *App {
	if c.Database.AutoMigrate {
		if err := database.AutoMigrateModels(db, &model.NavigationNode{}); err != nil {
			l.Error("auto_migrate_failed", zap.Error(err))
		}
	}
	if c.Navigation.Seed {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		n, err := seed.Navigation(ctx, nav, []model.MenuItem{model.StammdatenMenu()})
		cancel()
		if err != nil {
			l.Error("navigation_seed_failed", zap.Error(err))
		} else if n > 0 {
			l.Info("navigation_seeded", zap.Int("rows", n))
		}
	}
	app := &App{Config: c, Logger: l, DB: db, Redis: r, Kafka: k, Etcd: e, HTTP: engine, AsyncAccessSender: sender, Invalidator: inv, stopCh: make(chan struct{})}
	app.pingDatabase()

	if r != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(c.Redis.PingTimeoutMS)*time.Millisecond)
		if err := r.Ping(ctx); err != nil {
			l.Error("redis_ping_failed", zap.Error(err), zap.String("addr", c.Redis.Addr))
		} else {
			metrics.RedisUp.Set(1)
			l.Info("redis_ping_ok", zap.String("addr", c.Redis.Addr))
		}
		cancel()
		go app.redisHeartbeat()
	}
	if e != nil {
		go app.registerEtcd()
	}
	if c.OTel.Enable {
		app.initTracing()
	}
	if inv != nil {
		go app.consumeInvalidations(navSvc)
	}
	if sender != nil {
		sender.Start()
		metrics.KafkaUp.Set(1)
		l.Info("access_log_kafka_enabled", zap.String("topic", k.Topic()))
	}
	return app
}

// pingDatabase 启动时探测一次 db，之后由 readyz 维护 db_up
func (a *App) pingDatabase() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := (httpSrv.DBPinger{DB: a.DB}).Ping(ctx); err != nil {
		metrics.DBUp.Set(0)
		a.Logger.Error("db_ping_failed", zap.Error(err), zap.String("driver", a.Config.Database.Driver))
		return
	}
	metrics.DBUp.Set(1)
}

func (a *App) redisHeartbeat() {
	c := a.Config
	interval := time.Duration(c.Redis.HeartbeatSec) * time.Second
	if interval < 2*time.Second {
		interval = 2 * time.Second
	}
	lastUp := true
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-a.stopCh:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(c.Redis.PingTimeoutMS)*time.Millisecond)
			err := a.Redis.Ping(ctx)
			cancel()
			if err != nil {
				metrics.RedisUp.Set(0)
				if lastUp {
					a.Logger.Warn("redis_down", zap.Error(err))
				}
				lastUp = false
				continue
			}
			metrics.RedisUp.Set(1)
			if !lastUp {
				a.Logger.Info("redis_recovered")
			}
			lastUp = true
		}
	}
}

func (a *App) consumeInvalidations(navSvc *service.NavigationService) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-a.stopCh
		cancel()
	}()
	a.Logger.Info("navigation_invalidate_listening", zap.String("topic", a.Config.Kafka.InvalidateTopic))
	err := a.Invalidator.Start(ctx, func(ctx context.Context, _ kafkaGo.Message) error {
		navSvc.Invalidate(ctx)
		a.Logger.WithContext(ctx).Info("navigation_cache_invalidated")
		return nil
	})
	if err != nil {
		a.Logger.Error("navigation_invalidate_consumer_stopped", zap.Error(err))
	}
}

// registerEtcd 指数退避，最多 5 次
func (a *App) registerEtcd() {
	c := a.Config
	ip := firstNonLoopbackIPv4()
	if ip == "" {
		ip = "127.0.0.1"
	}
	inst := etcd.Instance{
		InstanceID:  uuid.New().String(),
		Env:         c.AppMeta.Env,
		Version:     c.AppMeta.Version,
		IP:          ip,
		Port:        listenPort(c.HTTP.Addr),
		StartupUnix: time.Now().Unix(),
	}
	key := inst.Key(serviceName)
	const maxAttempts = 5
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		leaseID, err := a.Etcd.Register(ctx, key, inst)
		cancel()
		if err == nil {
			a.regMu.Lock()
			a.serviceKey, a.leaseID = key, leaseID
			a.regMu.Unlock()
			metrics.EtcdUp.Set(1)
			a.Logger.Info("etcd_registered", zap.String("key", key))
			return
		}
		if attempt >= maxAttempts {
			a.Logger.Error("etcd_register_failed", zap.Error(err), zap.Int("attempt", attempt))
			return
		}
		backoff := time.Duration(1<<attempt) * 100 * time.Millisecond
		a.Logger.Warn("etcd_register_retry", zap.Error(err), zap.Int("attempt", attempt), zap.Duration("backoff", backoff))
		select {
		case <-a.stopCh:
			return
		case <-time.After(backoff):
		}
	}
}

// Close 可重复调用
func (a *App) Close() {
	a.closeOnce.Do(a.close)
}

func (a *App) close() {
	close(a.stopCh)
	// 先排空访问日志，再关 producer
	if a.AsyncAccessSender != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.AsyncAccessSender.Close(ctx); err != nil {
			a.Logger.Warn("access_sender_close_timeout", zap.Error(err))
		}
		cancel()
	}
	if a.Invalidator != nil {
		if err := a.Invalidator.Close(); err != nil {
			a.Logger.Error("kafka_consumer_close_error", zap.Error(err))
		}
	}
	if a.Kafka != nil {
		if err := a.Kafka.Close(); err != nil {
			a.Logger.Error("kafka_close_error", zap.Error(err))
		}
	}
	if a.Etcd != nil {
		a.regMu.Lock()
		key, leaseID := a.serviceKey, a.leaseID
		a.regMu.Unlock()
		if key != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			a.Etcd.Deregister(ctx, key, leaseID)
			cancel()
			metrics.EtcdUp.Set(0)
		}
		if err := a.Etcd.Close(); err != nil {
			a.Logger.Error("etcd_close_error", zap.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("redis_close_error", zap.Error(err))
		}
	}
	if err := database.Close(a.DB); err != nil {
		a.Logger.Error("db_close_error", zap.Error(err))
	}
	if a.tracerProv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.tracerProv.Shutdown(ctx); err != nil {
			a.Logger.Error("otel_tracer_shutdown_error", zap.Error(err))
		}
		cancel()
	}
	_ = a.Logger.Sync()
}

// listenPort 从 ":8000" / "0.0.0.0:8000" 取端口，解析失败返回 "0"
func listenPort(addr string) string {
	if strings.HasPrefix(addr, ":") && len(addr) > 1 {
		return addr[1:]
	}
	if _, p, err := net.SplitHostPort(addr); err == nil && p != "" {
		return p
	}
	return "0"
}

// 获取首个非 loopback IPv4
func firstNonLoopbackIPv4() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			if ip = ip.To4(); ip != nil {
				return ip.String()
			}
		}
	}
	return ""
}
