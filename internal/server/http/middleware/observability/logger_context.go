package observability

import (
	"oneplace/internal/logging"

	"github.com/gin-gonic/gin"
)

// LoggerContextMiddleware 把带 trace_id 的 logger 放进请求 context，
// 下游通过 logging.FromContext 获取。需放在 TraceMiddleware 之后。
func LoggerContextMiddleware(base *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx = logging.IntoContext(ctx, base.WithContext(ctx))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
