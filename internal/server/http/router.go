package http

import (
	"context"
	"net/http"
	"time"

	"oneplace/internal/logging"
	"oneplace/internal/mq/kafka"
	"oneplace/internal/server/http/handler"
	"oneplace/internal/server/http/middleware"
	obs "oneplace/internal/server/http/middleware/observability"
	"oneplace/internal/util/retcode"
	"oneplace/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 仅负责中间件装配与路由注册，业务在 handler 层
func NewRouter(logger *logging.Logger, h *handler.HandlerSet, hc *HealthChecker, sender *kafka.AccessAsyncSender) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.CORS(), obs.TraceMiddleware(), obs.LoggerContextMiddleware(logger), obs.AccessLog(logger, sender), obs.Metrics())

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, hc.Liveness()) })
	r.GET("/readyz", func(c *gin.Context) {
		if c.Query("refresh") == "1" {
			hc.Invalidate()
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()
		res, code := hc.Readiness(ctx)
		c.JSON(code, res)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/hello/:name", h.Hello.Hello)
	r.GET("/navigation", h.Navigation.Index)

	cacheGrp := r.Group("/cache")
	{
		cacheGrp.GET("/metrics", h.Cache.Metrics)
		cacheGrp.GET("/reset", h.Cache.Reset)
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, retcode.NOT_EXISTS, "not found")
	})
	return r
}
