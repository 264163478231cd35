package kafka

import (
	"context"
	"sync"
	"time"

	"oneplace/internal/logging"
	"oneplace/internal/metrics"

	kafkaGo "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// AsyncMessage 待发送的访问日志
type AsyncMessage struct {
	Ctx       context.Context
	Key       []byte
	Value     []byte
	Headers   map[string]string
	EnqueueAt time.Time
}

// AccessAsyncSender 有界队列 + 多 worker 批量写 Kafka。
// 达到 maxBatch 或等待超过 maxWait 触发 flush；队列满直接丢弃。
// 批量写失败时逐条回退重发。
type AccessAsyncSender struct {
	producer *Producer
	logger   *logging.Logger
	queue    chan AsyncMessage
	workers  int
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}

	maxBatch int
	maxWait  time.Duration
}

func NewAccessAsyncSender(p *Producer, l *logging.Logger, queueSize, workers, maxBatch int, maxWait time.Duration) *AccessAsyncSender {
	if queueSize <= 0 {
		queueSize = 10000
	}
	if workers <= 0 {
		workers = 1
	}
	if maxBatch <= 0 {
		maxBatch = 50
	}
	if maxWait <= 0 {
		maxWait = 20 * time.Millisecond
	}
	if l == nil {
		l = logging.Nop()
	}
	return &AccessAsyncSender{
		producer: p,
		logger:   l,
		queue:    make(chan AsyncMessage, queueSize),
		workers:  workers,
		stopCh:   make(chan struct{}),
		maxBatch: maxBatch,
		maxWait:  maxWait,
	}
}

func (s *AccessAsyncSender) Start() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.run()
	}
}

func (s *AccessAsyncSender) run() {
	defer s.wg.Done()
	batch := make([]AsyncMessage, 0, s.maxBatch)
	timer := time.NewTimer(s.maxWait)
	timer.Stop()
	var timerCh <-chan time.Time

	flush := func(reason string) {
		if len(batch) == 0 {
			return
		}
		s.flush(batch, reason)
		batch = batch[:0]
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timerCh = nil
	}
	for {
		select {
		case <-s.stopCh:
			// 尽量消费完队列
			for {
				select {
				case m := <-s.queue:
					metrics.HTTPAccessKafkaQueueDepth.Dec()
					batch = append(batch, m)
					if len(batch) >= s.maxBatch {
						flush("shutdown")
					}
				default:
					flush("shutdown")
					return
				}
			}
		case m := <-s.queue:
			metrics.HTTPAccessKafkaQueueDepth.Dec()
			batch = append(batch, m)
			if len(batch) == 1 {
				timer.Reset(s.maxWait)
				timerCh = timer.C
			}
			if len(batch) >= s.maxBatch {
				flush("size")
			}
		case <-timerCh:
			timerCh = nil
			flush("timeout")
		}
	}
}

func (s *AccessAsyncSender) flush(batch []AsyncMessage, reason string) {
	start := time.Now()
	msgs := make([]kafkaGo.Message, 0, len(batch))
	spans := make([]trace.Span, 0, len(batch))
	for _, m := range batch {
		ctx, span := s.producer.startSpan(m.Ctx)
		msgs = append(msgs, buildMessage(ctx, m.Key, m.Value, m.Headers))
		spans = append(spans, span)
	}
	writeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	err := s.producer.w.WriteMessages(writeCtx, msgs...)
	cancel()
	for _, sp := range spans {
		if err != nil {
			sp.SetStatus(codes.Error, err.Error())
			sp.RecordError(err)
		}
		sp.End()
	}
	if err != nil {
		metrics.HTTPAccessKafkaErrors.Add(float64(len(batch)))
		s.logger.Warn("access_kafka_batch_failed", zap.Error(err), zap.Int("size", len(batch)), zap.String("reason", reason))
		for _, m := range batch {
			if err := s.producer.Send(m.Ctx, m.Key, m.Value, m.Headers); err != nil {
				s.logger.Debug("access_kafka_send_failed", zap.Error(err))
			}
		}
	}
	metrics.HTTPAccessKafkaBatchSize.Observe(float64(len(batch)))
	metrics.HTTPAccessKafkaFlushDuration.WithLabelValues(reason).Observe(time.Since(start).Seconds())
}

// Enqueue 非阻塞放入，满则丢弃；Close 之后的消息直接丢弃
func (s *AccessAsyncSender) Enqueue(m AsyncMessage) bool {
	select {
	case <-s.stopCh:
		metrics.HTTPAccessKafkaEnqueue.WithLabelValues("closed").Inc()
		return false
	default:
	}
	if m.Ctx == nil {
		m.Ctx = context.Background()
	}
	select {
	case s.queue <- m:
		metrics.HTTPAccessKafkaEnqueue.WithLabelValues("ok").Inc()
		metrics.HTTPAccessKafkaQueueDepth.Inc()
		return true
	default:
		metrics.HTTPAccessKafkaEnqueue.WithLabelValues("dropped").Inc()
		return false
	}
}

// Close 通知 worker 退出并等待队列排空（受 ctx 约束）
func (s *AccessAsyncSender) Close(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
