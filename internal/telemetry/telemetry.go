package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"employee-service/internal/config"
	"employee-service/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ExporterNone       = ""
	ExporterOTLP       = "otlp"
	ExporterPrometheus = "prometheus"
)

type Telemetry struct {
	MeterProvider *metric.MeterProvider
	Metrics       *metrics.Metrics
	// Handler serves /metrics when the Prometheus exporter is active.
	Handler     http.Handler
	serviceName string
}

func Init(ctx context.Context, cfg config.TelemetryConfig, serviceName, serviceVersion string, logger *slog.Logger) (*Telemetry, error) {
	t := &Telemetry{serviceName: serviceName}

	switch cfg.Exporter {
	case ExporterNone:
		logger.Info("metrics exporter disabled, using no-op meter")
	case ExporterOTLP:
		mp, err := newOTLPProvider(ctx, cfg.OTLPEndpoint, serviceName, serviceVersion, logger)
		if err != nil {
			return nil, err
		}
		t.MeterProvider = mp
	case ExporterPrometheus:
		mp, handler, err := newPrometheusProvider(ctx, serviceName, serviceVersion)
		if err != nil {
			return nil, err
		}
		t.MeterProvider = mp
		t.Handler = handler
		logger.Info("prometheus metrics exporter initialized")
	default:
		return nil, fmt.Errorf("unknown metrics exporter %q", cfg.Exporter)
	}

	if t.MeterProvider != nil {
		otel.SetMeterProvider(t.MeterProvider)
	}

	meter := otel.Meter(serviceName)
	m, err := metrics.New(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	if err := m.Dependencies().RegisterServiceInfo(meter, serviceName, serviceVersion, os.Getenv("ENV")); err != nil {
		return nil, fmt.Errorf("failed to register service info: %w", err)
	}
	t.Metrics = m

	return t, nil
}

func newResource(ctx context.Context, serviceName, serviceVersion string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

func newOTLPProvider(ctx context.Context, endpoint, serviceName, serviceVersion string, logger *slog.Logger) (*metric.MeterProvider, error) {
	logger.Info("initializing OTel metrics", "endpoint", endpoint)

	res, err := newResource(ctx, serviceName, serviceVersion)
	if err != nil {
		return nil, err
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	return metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(exporter,
			metric.WithInterval(10*time.Second))),
	), nil
}

func newPrometheusProvider(ctx context.Context, serviceName, serviceVersion string) (*metric.MeterProvider, http.Handler, error) {
	res, err := newResource(ctx, serviceName, serviceVersion)
	if err != nil {
		return nil, nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(exporter),
	)
	return mp, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}

// RegisterDB starts pool gauges for the given database.
func (t *Telemetry) RegisterDB(db *sql.DB) error {
	return t.Metrics.DB().RegisterDB(db, otel.Meter(t.serviceName))
}

func (t *Telemetry) Shutdown(ctx context.Context, logger *slog.Logger) error {
	if t == nil || t.MeterProvider == nil {
		return nil
	}
	logger.Info("shutting down OTel meter provider")
	if err := t.MeterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}
