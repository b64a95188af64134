// Package metrics installs the global OpenTelemetry meter provider and
// serves the Prometheus scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/electrum-core/internal/apm"
	"github.com/fd1az/electrum-core/internal/config"
	"github.com/fd1az/electrum-core/internal/logger"
)

type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

// NewMetricProvider installs a meter provider exporting to reg, plus an
// OTLP gRPC reader when the trace provider is otlp-grpc. reg may be nil
// for the default registry.
func NewMetricProvider(ctx context.Context, cfg config.TelemetryConfig, reg prometheus.Registerer) (MetricProvider, error) {
	var readers []sdkmetric.Option

	promOpts := []otelprom.Option{}
	if reg != nil {
		promOpts = append(promOpts, otelprom.WithRegisterer(reg))
	}
	promExporter, err := otelprom.New(promOpts...)
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	readers = append(readers, sdkmetric.WithReader(promExporter))

	if strings.EqualFold(cfg.TraceProvider, string(apm.OTLPGRPCProvider)) && cfg.OTLPEndpoint != "" {
		headers, err := apm.ParseHeaders(cfg.OTLPHeaders)
		if err != nil {
			return nil, err
		}
		exp, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpointURL(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithHeaders(headers),
		)
		if err != nil {
			return nil, fmt.Errorf("otlp metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	}

	opts := append(readers, sdkmetric.WithResource(
		resource.NewSchemaless(semconv.ServiceNameKey.String(cfg.ServiceName)),
	))
	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Server serves /metrics.
type Server struct {
	srv *http.Server
	log logger.LoggerInterface
}

// NewServer creates a metrics server on port. gatherer may be nil for the
// default registry.
func NewServer(port int, gatherer prometheus.Gatherer, log logger.LoggerInterface) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start listens in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("metrics listen: %w", err)
	}
	s.log.Info(ctx, "serving metrics", "addr", ln.Addr().String())

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(ctx, "metrics server stopped", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
