package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency distribution",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method"})
	RequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"path", "method", "status"})
	Inflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "In-flight HTTP requests",
	})

	// 依赖连通性
	DBUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_up",
		Help: "Database connectivity (1=up,0=down)",
	})
	RedisUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "redis_up",
		Help: "Redis connectivity (1=up,0=down)",
	})
	KafkaUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kafka_up",
		Help: "Kafka connectivity (1=up,0=down)",
	})
	EtcdUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "etcd_up",
		Help: "Etcd connectivity (1=up,0=down)",
	})
	DependencyCheckDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dependency_check_duration_seconds",
		Help:    "Latency of dependency health checks",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.2, 0.4, 0.8, 1},
	}, []string{"dep"})

	// 导航
	NavigationAssembleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "navigation_assemble_duration_seconds",
		Help:    "Time spent building the navigation response",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"mode", "source"})
	NavigationNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "navigation_nodes",
		Help: "Number of navigation rows seen by the last assembly",
	})
	NavigationOrphans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "navigation_orphans_total",
		Help: "Nodes whose parent_id did not resolve and were promoted to root",
	})
	NavigationStoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "navigation_store_errors_total",
		Help: "Failed reads of the navigation table",
	})
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Layered cache lookups by result",
	}, []string{"result"})

	// Kafka 访问日志
	HTTPAccessKafkaEnqueue = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_access_kafka_enqueue_total",
		Help: "Access log messages offered to the async sender",
	}, []string{"result"})
	HTTPAccessKafkaQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_access_kafka_queue_depth",
		Help: "Access log messages waiting in the async queue",
	})
	HTTPAccessKafkaErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "http_access_kafka_errors_total",
		Help: "Access log messages whose batch write failed",
	})
	HTTPAccessKafkaBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "http_access_kafka_batch_size",
		Help:    "Messages per flushed batch",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200},
	})
	HTTPAccessKafkaFlushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_access_kafka_flush_duration_seconds",
		Help:    "Batch flush latency by trigger",
		Buckets: prometheus.DefBuckets,
	}, []string{"reason"})
)
