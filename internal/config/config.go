package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// 导航组装模式
const (
	NavigationModeStatic = "static" // 固定 Stammdaten 树（与旧版行为一致）
	NavigationModeTree   = "tree"   // 从 navigation 表组装
)

type Config struct {
	HTTP struct {
		Addr string `mapstructure:"addr"`
		Mode string `mapstructure:"mode"` // gin mode: debug / release / test
	} `mapstructure:"http"`
	Database struct {
		Driver      string `mapstructure:"driver"` // postgres / mysql / sqlserver / sqlite
		DSN         string `mapstructure:"dsn"`
		MaxOpen     int    `mapstructure:"max_open"`
		MaxIdle     int    `mapstructure:"max_idle"`
		AutoMigrate bool   `mapstructure:"auto_migrate"`
		LogLevel    string `mapstructure:"log_level"` // gorm logger: silent / error / warn / info
	} `mapstructure:"database"`
	Redis struct {
		Addr           string `mapstructure:"addr"`
		Password       string `mapstructure:"password"`
		DB             int    `mapstructure:"db"`
		DialTimeoutMS  int    `mapstructure:"dial_timeout_ms"`
		ReadTimeoutMS  int    `mapstructure:"read_timeout_ms"`
		WriteTimeoutMS int    `mapstructure:"write_timeout_ms"`
		PingTimeoutMS  int    `mapstructure:"ping_timeout_ms"`
		HeartbeatSec   int    `mapstructure:"heartbeat_sec"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers     []string `mapstructure:"brokers"`
		AccessTopic string   `mapstructure:"access_topic"`
		Async       struct {
			QueueSize int `mapstructure:"queue_size"`
			Workers   int `mapstructure:"workers"`
			MaxBatch  int `mapstructure:"max_batch"`
			MaxWaitMS int `mapstructure:"max_wait_ms"`
		} `mapstructure:"async"`

		// 收到消息即清本实例导航树缓存；留空不订阅
		InvalidateTopic string `mapstructure:"invalidate_topic"`
	} `mapstructure:"kafka"`
	Etcd struct {
		Endpoints []string `mapstructure:"endpoints"`
		TTL       int      `mapstructure:"ttl"`
	} `mapstructure:"etcd"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	AppMeta struct {
		Name    string `mapstructure:"name"`
		Version string `mapstructure:"version"`
		Env     string `mapstructure:"env"`
	} `mapstructure:"app_meta"`
	OTel struct {
		Endpoint     string  `mapstructure:"endpoint"` // OTLP gRPC endpoint
		Insecure     bool    `mapstructure:"insecure"`
		SamplerRatio float64 `mapstructure:"sampler_ratio"`
		Enable       bool    `mapstructure:"enable"`
	} `mapstructure:"otel"`
	Navigation struct {
		Mode string `mapstructure:"mode"`
		Seed bool   `mapstructure:"seed"` // 空表时写入默认导航
	} `mapstructure:"navigation"`
	Cache struct {
		TTLSeconds   int `mapstructure:"ttl_seconds"` // 0 关闭导航树缓存
		LocalTTLSecs int `mapstructure:"local_ttl_seconds"`
	} `mapstructure:"cache"`
}

// KafkaEnabled brokers 与 topic 同时配置才启用访问日志投递
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0 && c.Kafka.AccessTopic != ""
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("ONEPLACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8000")
	v.SetDefault("http.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:oneplace.db?_pragma=foreign_keys(1)")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout_ms", 500)
	v.SetDefault("redis.read_timeout_ms", 300)
	v.SetDefault("redis.write_timeout_ms", 300)
	v.SetDefault("redis.ping_timeout_ms", 300)
	v.SetDefault("redis.heartbeat_sec", 10)
	v.SetDefault("kafka.async.queue_size", 10000)
	v.SetDefault("kafka.async.workers", 1)
	v.SetDefault("kafka.async.max_batch", 50)
	v.SetDefault("kafka.async.max_wait_ms", 20)
	v.SetDefault("etcd.ttl", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("app_meta.name", "OnePlace")
	v.SetDefault("app_meta.version", "1.0.0")
	v.SetDefault("app_meta.env", "dev")
	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.sampler_ratio", 1.0)
	v.SetDefault("otel.insecure", true)
	v.SetDefault("navigation.mode", NavigationModeTree)
	v.SetDefault("navigation.seed", false)
	v.SetDefault("cache.ttl_seconds", 60)
	v.SetDefault("cache.local_ttl_seconds", 60)
}

// ===== 逻辑校验 =====
func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr required")
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlserver", "sqlite":
	default:
		return fmt.Errorf("database.driver %q not supported", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn required")
	}
	switch c.Navigation.Mode {
	case NavigationModeStatic, NavigationModeTree:
	default:
		return fmt.Errorf("navigation.mode must be %q or %q", NavigationModeStatic, NavigationModeTree)
	}
	if c.Cache.TTLSeconds < 0 {
		return errors.New("cache.ttl_seconds must >=0")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.AccessTopic == "" {
		return errors.New("kafka.access_topic required when kafka.brokers set")
	}
	if c.OTel.Enable {
		if c.OTel.Endpoint == "" {
			return errors.New("otel.endpoint required when otel.enable=true")
		}
		if c.OTel.SamplerRatio < 0 || c.OTel.SamplerRatio > 1 {
			return errors.New("otel.sampler_ratio must be in [0,1]")
		}
	}
	return nil
}
