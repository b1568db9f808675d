package telemetry

import (
	"context"
	"fmt"
	"strings"

	"DocMCP/internal/config"
	"DocMCP/pkg/zlog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// ShutdownFunc 刷新并关闭 TracerProvider
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup 配置了 endpoint 时安装 OTLP/HTTP 导出器，否则保持全局 no-op provider
func Setup(ctx context.Context, conf config.OtelConfig) (ShutdownFunc, error) {
	endpoint := strings.TrimSpace(conf.Endpoint)
	if endpoint == "" {
		zlog.Debug("tracing disabled: otel endpoint not set")
		return noopShutdown, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(endpoint)}
	if conf.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return noopShutdown, fmt.Errorf("create otlp exporter: %w", err)
	}

	tp := NewTracerProvider(conf.ServiceName, sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	zlog.Info("tracing enabled", zap.String("endpoint", endpoint), zap.String("service", conf.ServiceName))
	return tp.Shutdown, nil
}

// NewTracerProvider 带 service.name 资源的 provider
func NewTracerProvider(serviceName string, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	if serviceName == "" {
		serviceName = "docmcp"
	}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	opts = append([]sdktrace.TracerProviderOption{sdktrace.WithResource(res)}, opts...)
	return sdktrace.NewTracerProvider(opts...)
}
