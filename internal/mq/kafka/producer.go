package kafka

import (
	"context"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	Brokers []string
	Topic   string
}

// MessageWriter kafka-go Writer 的最小子集，便于测试替换
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

// Producer 封装 kafka-go Writer，发送时创建 producer span 并注入 trace 上下文
type Producer struct {
	w     MessageWriter
	topic string
}

// NewProducer brokers 为空返回 nil
func NewProducer(cfg Config) *Producer {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil
	}
	w := &kafkaGo.Writer{
		Addr:         kafkaGo.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		RequiredAcks: kafkaGo.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{w: w, topic: cfg.Topic}
}

// NewProducerWithWriter 注入自定义 writer
func NewProducerWithWriter(w MessageWriter, topic string) *Producer {
	return &Producer{w: w, topic: topic}
}

func (p *Producer) Topic() string { return p.topic }

func (p *Producer) startSpan(ctx context.Context) (context.Context, trace.Span) {
	tr := otel.GetTracerProvider().Tracer("kafka-producer")
	attrs := []attribute.KeyValue{
		semconv.MessagingSystem("kafka"),
		semconv.MessagingDestinationName(p.topic),
		attribute.String("messaging.destination_kind", "topic"),
	}
	return tr.Start(ctx, "kafka.produce", trace.WithSpanKind(trace.SpanKindProducer), trace.WithAttributes(attrs...))
}

// buildMessage 合并自定义 headers 与 W3C traceparent/baggage（同名 key 以自定义为准）
func buildMessage(ctx context.Context, key, value []byte, headers map[string]string) kafkaGo.Message {
	hs := make([]kafkaGo.Header, 0, len(headers)+2)
	for k, v := range headers {
		hs = append(hs, kafkaGo.Header{Key: k, Value: []byte(v)})
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		if _, ok := headers[k]; ok {
			continue
		}
		hs = append(hs, kafkaGo.Header{Key: k, Value: []byte(v)})
	}
	return kafkaGo.Message{Key: key, Value: value, Time: time.Now(), Headers: hs}
}

func (p *Producer) Send(ctx context.Context, key, value []byte, headers map[string]string) error {
	ctx, span := p.startSpan(ctx)
	defer span.End()
	if err := p.w.WriteMessages(ctx, buildMessage(ctx, key, value, headers)); err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return err
	}
	return nil
}

// Ping 空写探测 broker 连通性（readyz 使用）
func (p *Producer) Ping(ctx context.Context) error { return p.w.WriteMessages(ctx) }

func (p *Producer) Close() error { return p.w.Close() }
