// Package httpclient provides a JSON HTTP client with OTEL tracing and metrics.
package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type options struct {
	name          string
	baseURL       string
	timeout       time.Duration
	headers       map[string]string
	roundTripper  http.RoundTripper
	meterProvider metric.MeterProvider
	tracer        trace.Tracer
	traceBodies   bool
}

// Option configures a Client.
type Option func(*options)

// WithName sets the name used in metric attributes and span names.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithBaseURL resolves relative request paths against url.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithTimeout bounds every request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithHeaders sets headers sent on every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		o.headers = headers
	}
}

// WithRoundTripper replaces the pooled default transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) {
		o.roundTripper = rt
	}
}

// WithMeterProvider sets the OTEL meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithTracer sets the tracer; traceBodies also records request and
// response bodies as span events.
func WithTracer(tracer trace.Tracer, traceBodies bool) Option {
	return func(o *options) {
		o.tracer = tracer
		o.traceBodies = traceBodies
	}
}

// Label is a key-value pair added to the request counter.
type Label struct {
	Key   string
	Value string
}

// NewLabel creates a new label.
func NewLabel(key, value string) Label {
	return Label{Key: key, Value: value}
}
