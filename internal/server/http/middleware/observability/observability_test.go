package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"oneplace/internal/logging"
	"oneplace/internal/metrics"
	"oneplace/internal/mq/kafka"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type captureWriter struct {
	mu   sync.Mutex
	msgs []kafkaGo.Message
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestTraceMiddlewarePropagatesID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware())
	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = logging.TraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(TraceIDHeader, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(TraceIDHeader))
	assert.Equal(t, "abc", seen)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, w.Header().Get(TraceIDHeader), 36)
}

func TestAccessLogWritesLogAndKafka(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	lg := &logging.Logger{Logger: zap.New(core)}
	cw := &captureWriter{}
	sender := kafka.NewAccessAsyncSender(kafka.NewProducerWithWriter(cw, "http_access"), lg, 10, 1, 1, time.Millisecond)
	sender.Start()

	r := gin.New()
	r.Use(TraceMiddleware(), LoggerContextMiddleware(lg), AccessLog(lg, sender))
	r.GET("/hello/:name", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/hello/Ada", nil)
	req.Header.Set(TraceIDHeader, "t-1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, sender.Close(context.Background()))

	entries := logs.FilterMessage("http_access").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/hello/:name", entries[0].ContextMap()["path"])
	assert.Equal(t, "t-1", entries[0].ContextMap()["trace_id"])

	require.Len(t, cw.msgs, 1)
	var e accessEntry
	require.NoError(t, json.Unmarshal(cw.msgs[0].Value, &e))
	assert.Equal(t, "/hello/:name", e.Path)
	assert.Equal(t, http.StatusOK, e.Status)
	assert.Equal(t, "t-1", e.TraceID)
}

func TestMetricsLabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/hello/:name", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	hello := metrics.RequestTotal.WithLabelValues("/hello/:name", http.MethodGet, "200")
	missing := metrics.RequestTotal.WithLabelValues(unmatchedRoute, http.MethodGet, "404")
	scrape := metrics.RequestTotal.WithLabelValues("/metrics", http.MethodGet, "200")
	helloBefore, missingBefore := testutil.ToFloat64(hello), testutil.ToFloat64(missing)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/hello/Ada", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/hello/Bob", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/no/such/path", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, helloBefore+2, testutil.ToFloat64(hello))
	assert.Equal(t, missingBefore+1, testutil.ToFloat64(missing))
	assert.Zero(t, testutil.ToFloat64(scrape))
	assert.Zero(t, testutil.ToFloat64(metrics.Inflight))
}
