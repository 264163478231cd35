package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"oneplace/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Pinger 依赖探活
type Pinger interface {
	Ping(ctx context.Context) error
}

// DBPinger 将 gorm.DB 适配为 Pinger
type DBPinger struct{ DB *gorm.DB }

func (p DBPinger) Ping(ctx context.Context) error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type dependency struct {
	name    string
	pinger  Pinger
	timeout time.Duration
	gauge   prometheus.Gauge
	// required=false 时该依赖 down 不影响整体 readiness（如 redis/kafka 仅用于缓存与日志）
	required bool
}

// HealthChecker 聚合健康检查（liveness / readiness）
type HealthChecker struct {
	deps []dependency

	cacheMu     sync.Mutex
	cacheResult map[string]interface{}
	cacheCode   int
	cacheExpiry time.Time
	cacheTTL    time.Duration
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{cacheTTL: 2 * time.Second}
}

// Add p 为 nil 时忽略（组件未启用）
func (h *HealthChecker) Add(name string, p Pinger, timeout time.Duration, gauge prometheus.Gauge, required bool) *HealthChecker {
	if p == nil {
		return h
	}
	h.deps = append(h.deps, dependency{name: name, pinger: p, timeout: timeout, gauge: gauge, required: required})
	return h
}

// Liveness 仅表示进程活着，不依赖外部组件
func (h *HealthChecker) Liveness() map[string]interface{} {
	return map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}
}

// Invalidate 丢弃缓存结果（?refresh=1）
func (h *HealthChecker) Invalidate() {
	h.cacheMu.Lock()
	h.cacheExpiry = time.Time{}
	h.cacheMu.Unlock()
}

// Readiness 并发检测已注册依赖，结果缓存 cacheTTL
func (h *HealthChecker) Readiness(ctx context.Context) (map[string]interface{}, int) {
	h.cacheMu.Lock()
	if time.Now().Before(h.cacheExpiry) && h.cacheResult != nil {
		res, code := h.cacheResult, h.cacheCode
		h.cacheMu.Unlock()
		return res, code
	}
	h.cacheMu.Unlock()

	type depResult struct {
		name     string
		up       bool
		required bool
		err      string
		dur      time.Duration
	}
	results := make([]depResult, len(h.deps))
	var wg sync.WaitGroup
	for i, d := range h.deps {
		wg.Add(1)
		go func(i int, d dependency) {
			defer wg.Done()
			start := time.Now()
			out := depResult{name: d.name, required: d.required}
			ctx2, cancel := context.WithTimeout(ctx, d.timeout)
			if err := d.pinger.Ping(ctx2); err != nil {
				out.err = err.Error()
			} else {
				out.up = true
			}
			cancel()
			out.dur = time.Since(start)
			metrics.DependencyCheckDuration.WithLabelValues(d.name).Observe(out.dur.Seconds())
			if d.gauge != nil {
				if out.up {
					d.gauge.Set(1)
				} else {
					d.gauge.Set(0)
				}
			}
			results[i] = out
		}(i, d)
	}
	wg.Wait()

	status := "ok"
	detail := make([]map[string]interface{}, 0, len(results))
	res := map[string]interface{}{"time": time.Now().Format(time.RFC3339)}
	for _, r := range results {
		if r.up {
			res[r.name] = "up"
		} else {
			res[r.name] = r.err
			if r.required {
				status = "degraded"
			}
		}
		ms := float64(r.dur.Microseconds()) / 1000.0
		res[r.name+"_duration_ms"] = ms
		detail = append(detail, map[string]interface{}{"dep": r.name, "up": r.up, "required": r.required, "error": r.err, "duration_ms": ms})
	}
	res["status"] = status
	res["detail"] = detail
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	h.cacheMu.Lock()
	h.cacheResult = res
	h.cacheCode = code
	h.cacheExpiry = time.Now().Add(h.cacheTTL)
	h.cacheMu.Unlock()
	return res, code
}
