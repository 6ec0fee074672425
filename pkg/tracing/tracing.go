// Package tracing wires OpenCensus spans, HTTP and SQL instrumentation, and the
// configured trace and metrics exporters.
package tracing

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"

	"github.com/aihubhq/aihub/config"
	"github.com/aihubhq/aihub/pkg/logger"
)

// InitTracing applies the sampler and registers the configured exporters.
// Nothing is registered when tracing is disabled.
// codecov:ignore:start
func InitTracing(cfg *config.TracingConfig, log logger.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	trace.ApplyConfig(trace.Config{
		DefaultSampler: trace.ProbabilitySampler(cfg.SamplingProbability),
	})

	if err := initTraceExporter(cfg, log); err != nil {
		return err
	}
	if err := initMetricsExporters(cfg, log); err != nil {
		return err
	}

	if err := RegisterHTTPServerViews(); err != nil {
		return fmt.Errorf("failed to register HTTP server views: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"trace_exporter":   cfg.TraceExporter,
		"metrics_exporter": cfg.MetricsExporter,
	}).Info("OpenCensus initialized")
	return nil
}

func initTraceExporter(cfg *config.TracingConfig, log logger.Logger) error {
	name := strings.TrimSpace(cfg.TraceExporter)
	if name == "" || name == "none" {
		log.Debug("No trace exporter configured")
		return nil
	}

	factory, ok := traceExporters[name]
	if !ok {
		return fmt.Errorf("unsupported trace exporter: %s", name)
	}
	exporter, err := factory(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize %s trace exporter: %w", name, err)
	}

	trace.RegisterExporter(exporter)
	log.WithField("exporter", name).Info("Trace exporter initialized")
	return nil
}

// initMetricsExporters accepts a comma separated list of exporters
func initMetricsExporters(cfg *config.TracingConfig, log logger.Logger) error {
	names := parseExporterList(cfg.MetricsExporter)
	if len(names) == 0 {
		log.Debug("No metrics exporter configured")
		return nil
	}

	for _, name := range names {
		factory, ok := metricsExporters[name]
		if !ok {
			return fmt.Errorf("unsupported metrics exporter: %s", name)
		}
		exporter, err := factory(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize %s metrics exporter: %w", name, err)
		}
		view.RegisterExporter(exporter)
		log.WithField("exporter", name).Info("Metrics exporter initialized")
	}

	if err := RegisterViews(); err != nil {
		return fmt.Errorf("failed to register custom views: %w", err)
	}
	return nil
}

func parseExporterList(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "none" {
			continue
		}
		names = append(names, part)
	}
	return names
}

// GetHTTPOptions returns the client transport used by WrapHTTPClient
func GetHTTPOptions() ochttp.Transport {
	return ochttp.Transport{
		FormatSpanName: func(req *http.Request) string {
			return fmt.Sprintf("%s %s", req.Method, req.URL.Path)
		},
		StartOptions: trace.StartOptions{
			Sampler: trace.AlwaysSample(),
		},
	}
}

func RegisterHTTPServerViews() error {
	return view.Register(
		ochttp.ServerRequestCountView,
		ochttp.ServerRequestBytesView,
		ochttp.ServerResponseBytesView,
		ochttp.ServerLatencyView,
		ochttp.ServerRequestCountByMethod,
		ochttp.ServerResponseCountByStatusCode,
	)
}

// StartSpan starts a new span with the given name and returns a context with the span
func StartSpan(ctx context.Context, name string) (context.Context, *trace.Span) {
	return trace.StartSpan(ctx, name)
}

// codecov:ignore:end
