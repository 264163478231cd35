package observability

import (
	"context"
	"encoding/json"
	"time"

	"oneplace/internal/logging"
	"oneplace/internal/mq/kafka"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 探活与指标路径不记访问日志
var skipAccessPaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
	"/metrics": {},
}

type accessEntry struct {
	Type      string `json:"type"`
	Path      string `json:"path"`
	Method    string `json:"method"`
	Status    int    `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	IP        string `json:"ip"`
	TS        int64  `json:"ts"`
	UA        string `json:"ua,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

func newAccessEntry(c *gin.Context, start time.Time) accessEntry {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	ua := c.Request.UserAgent()
	if len(ua) > 200 {
		ua = ua[:200]
	}
	return accessEntry{
		Type:      "http_access",
		Path:      path,
		Method:    c.Request.Method,
		Status:    c.Writer.Status(),
		LatencyMS: time.Since(start).Milliseconds(),
		IP:        c.ClientIP(),
		TS:        time.Now().Unix(),
		UA:        ua,
		TraceID:   c.GetString(TraceIDKey),
	}
}

// AccessLog 输出 HTTP 访问日志；sender 非 nil 时同时异步投递 Kafka
func AccessLog(l *logging.Logger, sender *kafka.AccessAsyncSender) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, skip := skipAccessPaths[c.Request.URL.Path]; skip {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		e := newAccessEntry(c, start)
		logging.FromContext(c.Request.Context(), l).Info("http_access",
			zap.String("method", e.Method),
			zap.String("path", e.Path),
			zap.Int("status", e.Status),
			zap.String("ip", e.IP),
			zap.Duration("latency", time.Since(start)),
		)
		if sender == nil {
			return
		}
		b, err := json.Marshal(e)
		if err != nil {
			return
		}
		var headers map[string]string
		if e.TraceID != "" {
			headers = map[string]string{"trace_id": e.TraceID}
		}
		sender.Enqueue(kafka.AsyncMessage{
			Ctx:       context.WithoutCancel(c.Request.Context()),
			Value:     b,
			Headers:   headers,
			EnqueueAt: time.Now(),
		})
	}
}
