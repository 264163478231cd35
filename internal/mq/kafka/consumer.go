package kafka

import (
	"context"
	"errors"
	"time"

	"oneplace/internal/logging"

	kafkaGo "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ConsumerConfig struct {
	Brokers        []string
	GroupID        string
	Topics         []string
	MinBytes       int
	MaxBytes       int
	CommitInterval time.Duration
}

// MessageReader kafka-go Reader 的最小子集
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafkaGo.Message, error)
	Close() error
}

type MessageHandler func(ctx context.Context, msg kafkaGo.Message) error

type Consumer struct {
	reader MessageReader
	logger *logging.Logger
}

// NewConsumer brokers 或 topics 为空返回 nil
func NewConsumer(cfg ConsumerConfig, l *logging.Logger) *Consumer {
	if len(cfg.Brokers) == 0 || len(cfg.Topics) == 0 {
		return nil
	}
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 1 << 20
	}
	if cfg.CommitInterval == 0 {
		cfg.CommitInterval = time.Second
	}
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		GroupTopics:    cfg.Topics,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		CommitInterval: cfg.CommitInterval,
	})
	return NewConsumerWithReader(reader, l)
}

func NewConsumerWithReader(r MessageReader, l *logging.Logger) *Consumer {
	if l == nil {
		l = logging.Nop()
	}
	return &Consumer{reader: r, logger: l}
}

// Start 阻塞消费直到 ctx 取消（返回 nil）或 reader 出错。
// 每条消息从 header 还原 trace 上下文，包一个 consumer span 后交给 handler；
// handler 出错只记录，不中断循环。
func (c *Consumer) Start(ctx context.Context, handler MessageHandler) error {
	prop := otel.GetTextMapPropagator()
	tracer := otel.Tracer("kafka-consumer")
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		carrier := propagation.MapCarrier{}
		for _, h := range m.Headers {
			carrier[h.Key] = string(h.Value)
		}
		msgCtx := prop.Extract(ctx, carrier)
		if v := carrier["trace_id"]; v != "" {
			msgCtx = logging.WithTraceID(msgCtx, v)
		}

		attrs := []attribute.KeyValue{
			semconv.MessagingSystem("kafka"),
			semconv.MessagingDestinationName(m.Topic),
			attribute.Int("messaging.kafka.partition", m.Partition),
			attribute.Int64("messaging.kafka.offset", m.Offset),
			attribute.Int("messaging.message.size", len(m.Value)),
		}
		msgCtx, span := tracer.Start(msgCtx, "kafka.consume", trace.WithSpanKind(trace.SpanKindConsumer), trace.WithAttributes(attrs...))
		if err := handler(msgCtx, m); err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
			c.logger.WithContext(msgCtx).Warn("kafka_consume_handler_error", zap.Error(err), zap.String("topic", m.Topic), zap.Int64("offset", m.Offset))
		}
		span.End()
	}
}

func (c *Consumer) Close() error { return c.reader.Close() }
