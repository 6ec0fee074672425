package tracing

import (
	"errors"
	"fmt"
	"net/http"

	"contrib.go.opencensus.io/exporter/aws"
	"contrib.go.opencensus.io/exporter/jaeger"
	"contrib.go.opencensus.io/exporter/prometheus"
	"contrib.go.opencensus.io/exporter/stackdriver"
	"contrib.go.opencensus.io/exporter/zipkin"
	datadog "github.com/DataDog/opencensus-go-exporter-datadog"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"

	"github.com/aihubhq/aihub/config"
	"github.com/aihubhq/aihub/pkg/logger"
)

type traceExporterFactory func(cfg *config.TracingConfig) (trace.Exporter, error)

type metricsExporterFactory func(cfg *config.TracingConfig, log logger.Logger) (view.Exporter, error)

var traceExporters = map[string]traceExporterFactory{
	"jaeger":      newJaegerExporter,
	"zipkin":      newZipkinExporter,
	"stackdriver": newStackdriverTraceExporter,
	"datadog":     newDatadogTraceExporter,
	"xray":        newXRayExporter,
}

var metricsExporters = map[string]metricsExporterFactory{
	"prometheus":  newPrometheusExporter,
	"stackdriver": newStackdriverMetricsExporter,
	"datadog":     newDatadogMetricsExporter,
}

// codecov:ignore:start
func newJaegerExporter(cfg *config.TracingConfig) (trace.Exporter, error) {
	if cfg.JaegerEndpoint == "" {
		return nil, errors.New("jaeger endpoint is required")
	}
	return jaeger.NewExporter(jaeger.Options{
		CollectorEndpoint: cfg.JaegerEndpoint,
		ServiceName:       cfg.ServiceName,
		Process:           jaeger.Process{ServiceName: cfg.ServiceName},
	})
}

func newZipkinExporter(cfg *config.TracingConfig) (trace.Exporter, error) {
	if cfg.ZipkinEndpoint == "" {
		return nil, errors.New("zipkin endpoint is required")
	}
	return zipkin.NewExporter(zipkinhttp.NewReporter(cfg.ZipkinEndpoint), nil), nil
}

func newStackdriverTraceExporter(cfg *config.TracingConfig) (trace.Exporter, error) {
	if cfg.StackdriverProjectID == "" {
		return nil, errors.New("stackdriver project ID is required")
	}
	return stackdriver.NewExporter(stackdriver.Options{ProjectID: cfg.StackdriverProjectID})
}

func newDatadogTraceExporter(cfg *config.TracingConfig) (trace.Exporter, error) {
	opts, err := datadogOptions(cfg, nil)
	if err != nil {
		return nil, err
	}
	return datadog.NewExporter(opts)
}

func newXRayExporter(cfg *config.TracingConfig) (trace.Exporter, error) {
	if cfg.XRayRegion == "" {
		return nil, errors.New("AWS region is required for X-Ray")
	}
	return aws.NewExporter(aws.WithRegion(cfg.XRayRegion), aws.WithVersion("latest"))
}

// newPrometheusExporter also serves /metrics when a port is configured
func newPrometheusExporter(cfg *config.TracingConfig, log logger.Logger) (view.Exporter, error) {
	pe, err := prometheus.NewExporter(prometheus.Options{
		Namespace: cfg.ServiceName,
		OnError: func(err error) {
			log.WithField("error", err.Error()).Error("Prometheus exporter error")
		},
	})
	if err != nil {
		return nil, err
	}

	if cfg.PrometheusPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", pe)
		server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.PrometheusPort), Handler: mux}

		go func() {
			log.WithField("port", cfg.PrometheusPort).Info("Starting Prometheus metrics server")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithField("error", err.Error()).Error("Prometheus metrics server stopped")
			}
		}()
	}
	return pe, nil
}

func newStackdriverMetricsExporter(cfg *config.TracingConfig, log logger.Logger) (view.Exporter, error) {
	if cfg.StackdriverProjectID == "" {
		return nil, errors.New("stackdriver project ID is required")
	}
	return stackdriver.NewExporter(stackdriver.Options{
		ProjectID:    cfg.StackdriverProjectID,
		MetricPrefix: cfg.ServiceName,
		OnError: func(err error) {
			log.WithField("error", err.Error()).Error("Stackdriver exporter error")
		},
	})
}

func newDatadogMetricsExporter(cfg *config.TracingConfig, log logger.Logger) (view.Exporter, error) {
	opts, err := datadogOptions(cfg, log)
	if err != nil {
		return nil, err
	}
	return datadog.NewExporter(opts)
}

// codecov:ignore:end

// datadogOptions falls back to the generic agent endpoint when no Datadog address is set
func datadogOptions(cfg *config.TracingConfig, log logger.Logger) (datadog.Options, error) {
	addr := cfg.DatadogAgentAddress
	if addr == "" {
		addr = cfg.AgentEndpoint
	}
	if addr == "" {
		return datadog.Options{}, errors.New("datadog agent address is required")
	}

	env := cfg.Environment
	if env == "" {
		env = "production"
	}

	opts := datadog.Options{
		Service:   cfg.ServiceName,
		TraceAddr: addr,
		StatsAddr: addr,
		Tags:      []string{"env:" + env},
	}
	if log != nil {
		opts.OnError = func(err error) {
			log.WithField("error", err.Error()).Error("Datadog exporter error")
		}
	}
	if cfg.DatadogAPIKey != "" {
		opts.GlobalTags = map[string]interface{}{"api_key": cfg.DatadogAPIKey}
	}
	return opts, nil
}
