package observability

import (
	"strconv"
	"time"

	"oneplace/internal/metrics"

	"github.com/gin-gonic/gin"
)

// 未命中路由统一记为 not_found，避免任意路径撑爆 label 基数
const unmatchedRoute = "not_found"

// Metrics 记录 http 时延/计数/并发；/metrics 自身的抓取不计入
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		metrics.Inflight.Inc()
		defer metrics.Inflight.Dec()
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method
		metrics.RequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
		metrics.RequestTotal.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
