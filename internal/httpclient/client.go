package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDialKeepAlive         = 10 * time.Second
	defaultRequestTimeout        = 10 * time.Second
	defaultMaxConnsPerHost       = 5
	defaultIdleConnTimeout       = 2 * time.Minute
	defaultExpectContinueTimeout = 100 * time.Millisecond

	metricRequestCounter = "http_client_requests_total"
	instrumentationName  = "github.com/fd1az/electrum-core/internal/httpclient"
)

// Client issues JSON requests through an instrumented http.Client.
type Client struct {
	http        *http.Client
	name        string
	baseURL     string
	headers     map[string]string
	tracer      trace.Tracer
	traceBodies bool
	requests    metric.Int64Counter
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	o := &options{name: "default", timeout: defaultRequestTimeout}
	for _, opt := range opts {
		opt(o)
	}

	transport := o.roundTripper
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxConnsPerHost:       defaultMaxConnsPerHost,
			IdleConnTimeout:       defaultIdleConnTimeout,
			ExpectContinueTimeout: defaultExpectContinueTimeout,
		}
	}

	meterProvider := o.meterProvider
	if meterProvider == nil {
		meterProvider = otel.GetMeterProvider()
	}
	meter := meterProvider.Meter(instrumentationName,
		metric.WithInstrumentationAttributes(attribute.String("client", o.name)))

	requests, err := meter.Int64Counter(metricRequestCounter,
		metric.WithDescription("Total number of outgoing HTTP requests"))
	if err != nil {
		return nil, err
	}

	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}

	return &Client{
		http: &http.Client{
			Timeout: o.timeout,
			Transport: otelhttp.NewTransport(transport,
				otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
					return otelhttptrace.NewClientTrace(ctx)
				}),
			),
		},
		name:        o.name,
		baseURL:     o.baseURL,
		headers:     o.headers,
		tracer:      tracer,
		traceBodies: o.traceBodies,
		requests:    requests,
	}, nil
}

// R starts a request; labels are attached to the request counter.
func (c *Client) R(labels ...Label) *Request {
	headers := make(http.Header, len(c.headers)+1)
	for k, v := range c.headers {
		headers.Set(k, v)
	}
	return &Request{
		client:  c,
		headers: headers,
		labels:  labels,
	}
}

// Name returns the client name.
func (c *Client) Name() string {
	return c.name
}
