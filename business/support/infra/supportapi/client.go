// Package supportapi talks to support servers over their plain HTTP API.
package supportapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/electrum-core/business/support/domain"
	"github.com/fd1az/electrum-core/internal/circuitbreaker"
	"github.com/fd1az/electrum-core/internal/httpclient"
	"github.com/fd1az/electrum-core/internal/logger"
)

const (
	tracerName = "github.com/fd1az/electrum-core/business/support/infra/supportapi"

	requestPath      = "/support/request"
	difficultiesPath = "/support/difficulties"

	defaultTimeout = 10 * time.Second
)

// ErrUnavailable is returned when a server answers with status false.
var ErrUnavailable = errors.New("support server reported failure")

type difficultyWire struct {
	Reward  float64 `json:"reward"`
	Time    int64   `json:"time"`
	Address string  `json:"address"`
}

type difficultiesWire struct {
	Status       bool             `json:"status"`
	Difficulties []difficultyWire `json:"difficulties"`
}

// Client calls support servers. Each server gets its own breaker.
type Client struct {
	http   *httpclient.Client
	log    logger.LoggerInterface
	tracer trace.Tracer

	mu       sync.Mutex
	breakers map[string]*circuitbreaker.CircuitBreaker[*httpclient.Response]
}

// New creates a Client.
func New(timeout time.Duration, log logger.LoggerInterface) (*Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	tracer := otel.Tracer(tracerName)

	hc, err := httpclient.New(
		httpclient.WithName("support"),
		httpclient.WithTimeout(timeout),
		httpclient.WithTracer(tracer, false),
		httpclient.WithHeaders(map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		}),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:     hc,
		log:      log,
		tracer:   tracer,
		breakers: make(map[string]*circuitbreaker.CircuitBreaker[*httpclient.Response]),
	}, nil
}

// CreateRequest posts {tx, address, reward} to the server.
func (c *Client) CreateRequest(ctx context.Context, srv domain.Server, req domain.SupportRequest) (domain.RequestResult, error) {
	ctx, span := c.tracer.Start(ctx, "support.create_request",
		trace.WithAttributes(attribute.String("server", srv.Addr())))
	defer span.End()

	var out domain.RequestResult
	err := c.call(ctx, srv, func() (*httpclient.Response, error) {
		return c.http.R(httpclient.NewLabel("endpoint", "request")).
			SetBody(req).
			SetResult(&out).
			Post(ctx, srv.BaseURL()+requestPath)
	})
	if err != nil {
		span.RecordError(err)
		return domain.RequestResult{}, err
	}
	if !out.Status {
		return domain.RequestResult{}, ErrUnavailable
	}
	return out, nil
}

// RequestStatus fetches the tickets for a request hash.
func (c *Client) RequestStatus(ctx context.Context, srv domain.Server, hash string) (domain.RequestStatus, error) {
	ctx, span := c.tracer.Start(ctx, "support.request_status",
		trace.WithAttributes(attribute.String("server", srv.Addr())))
	defer span.End()

	var out domain.RequestStatus
	err := c.call(ctx, srv, func() (*httpclient.Response, error) {
		return c.http.R(httpclient.NewLabel("endpoint", "status")).
			SetResult(&out).
			Get(ctx, srv.BaseURL()+requestPath+"/"+url.PathEscape(hash))
	})
	if err != nil {
		span.RecordError(err)
		return domain.RequestStatus{}, err
	}
	if !out.Status {
		return domain.RequestStatus{}, ErrUnavailable
	}
	return out, nil
}

// Difficulties lists the support tiers a server offers.
func (c *Client) Difficulties(ctx context.Context, srv domain.Server) ([]domain.Difficulty, error) {
	ctx, span := c.tracer.Start(ctx, "support.difficulties",
		trace.WithAttributes(attribute.String("server", srv.Addr())))
	defer span.End()

	var out difficultiesWire
	err := c.call(ctx, srv, func() (*httpclient.Response, error) {
		return c.http.R(httpclient.NewLabel("endpoint", "difficulties")).
			SetResult(&out).
			Get(ctx, srv.BaseURL()+difficultiesPath)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !out.Status {
		return nil, ErrUnavailable
	}

	diffs := make([]domain.Difficulty, 0, len(out.Difficulties))
	for _, d := range out.Difficulties {
		diffs = append(diffs, domain.Difficulty{Amount: d.Reward, Time: d.Time, Address: d.Address})
	}
	span.SetAttributes(attribute.Int("difficulties", len(diffs)))
	return diffs, nil
}

func (c *Client) call(ctx context.Context, srv domain.Server, fn func() (*httpclient.Response, error)) error {
	_, err := c.breaker(srv.Addr()).Execute(fn)
	return err
}

func (c *Client) breaker(addr string) *circuitbreaker.CircuitBreaker[*httpclient.Response] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[addr]; ok {
		return cb
	}

	cfg := circuitbreaker.DefaultConfig("support:" + addr)
	// 4xx answers mean the server is up
	cfg.IsSuccessful = func(err error) bool {
		var se *httpclient.StatusError
		return err == nil || (errors.As(err, &se) && se.StatusCode < http.StatusInternalServerError)
	}
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		c.log.Warn(context.Background(), "support server breaker state changed",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	cb := circuitbreaker.New[*httpclient.Response](cfg)
	c.breakers[addr] = cb
	return cb
}
