package logging

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey int

const (
	traceIDKey ctxKey = iota
	loggerKey
)

type Logger struct {
	*zap.Logger
}

func New(level, format string) (*Logger, error) {
	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	if level != "" {
		if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
	}
	lg, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{lg}, nil
}

// Nop 测试用
func Nop() *Logger { return &Logger{zap.NewNop()} }

// WithTraceID 将 trace_id 写入 context，供 WithContext 读取
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(traceIDKey).(string)
	return s
}

func (l *Logger) WithContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return l.Logger
	}
	if id := TraceID(ctx); id != "" {
		return l.Logger.With(zap.String("trace_id", id))
	}
	return l.Logger
}

// IntoContext 放入请求级 logger
func IntoContext(ctx context.Context, lg *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, lg)
}

// FromContext 取请求级 logger；没有时回退到 fallback
func FromContext(ctx context.Context, fallback *Logger) *zap.Logger {
	if ctx != nil {
		if lg, ok := ctx.Value(loggerKey).(*zap.Logger); ok && lg != nil {
			return lg
		}
	}
	if fallback == nil {
		return zap.NewNop()
	}
	return fallback.WithContext(ctx)
}
