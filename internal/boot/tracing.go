package boot

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"gorm.io/plugin/opentelemetry/tracing"
)

// initTracing 失败只记日志，服务照常启动
func (a *App) initTracing() {
	c, l := a.Config, a.Logger
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.OTel.Endpoint)}
	if c.OTel.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		l.Error("otel_exporter_init_failed", zap.Error(err))
		return
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(c.AppMeta.Name),
		semconv.ServiceVersionKey.String(c.AppMeta.Version),
		semconv.DeploymentEnvironmentKey.String(c.AppMeta.Env),
	))
	if err != nil {
		l.Warn("otel_resource_merge_failed", zap.Error(err))
		res = resource.Default()
	}
	sampler := trace.ParentBased(trace.TraceIDRatioBased(c.OTel.SamplerRatio))
	a.tracerProv = trace.NewTracerProvider(trace.WithBatcher(exp), trace.WithResource(res), trace.WithSampler(sampler))
	otel.SetTracerProvider(a.tracerProv)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	l.Info("otel_tracer_provider_initialized", zap.String("endpoint", c.OTel.Endpoint))

	if a.DB != nil {
		if err := a.DB.Use(tracing.NewPlugin()); err != nil {
			l.Error("gorm_tracing_plugin_failed", zap.Error(err))
		} else {
			l.Info("gorm_tracing_plugin_enabled")
		}
	}
	if a.Redis != nil {
		if err := a.Redis.InstrumentTracing(); err != nil {
			l.Error("redis_tracing_hook_failed", zap.Error(err))
		} else {
			l.Info("redis_otel_tracing_enabled")
		}
	}
}
