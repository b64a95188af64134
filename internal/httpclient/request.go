package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// maxBodyBytes caps how much of a response body is buffered.
const maxBodyBytes = 4 << 20

// StatusError is returned for responses with a status code of 400 or above.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Request builds a single request. It is not safe for concurrent use.
type Request struct {
	client  *Client
	headers http.Header
	query   url.Values
	body    any
	result  any
	labels  []Label
}

// SetHeader sets a header on this request.
func (r *Request) SetHeader(key, value string) *Request {
	r.headers.Set(key, value)
	return r
}

// SetQueryParam adds a query parameter.
func (r *Request) SetQueryParam(key, value string) *Request {
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Add(key, value)
	return r
}

// SetBody sets the body. Strings and byte slices are sent as is; anything
// else is JSON encoded.
func (r *Request) SetBody(body any) *Request {
	r.body = body
	return r
}

// SetResult decodes a successful JSON response into result.
func (r *Request) SetResult(result any) *Request {
	r.result = result
	return r
}

// Get executes a GET request.
func (r *Request) Get(ctx context.Context, target string) (*Response, error) {
	return r.execute(ctx, http.MethodGet, target)
}

// Post executes a POST request.
func (r *Request) Post(ctx context.Context, target string) (*Response, error) {
	return r.execute(ctx, http.MethodPost, target)
}

func (r *Request) resolve(target string) (string, error) {
	full := target
	if r.client.baseURL != "" && !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		full = strings.TrimSuffix(r.client.baseURL, "/") + "/" + strings.TrimPrefix(target, "/")
	}
	if len(r.query) == 0 {
		return full, nil
	}

	u, err := url.Parse(full)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, vs := range r.query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (r *Request) encodeBody(span trace.Span) (io.Reader, error) {
	var raw []byte
	switch b := r.body.(type) {
	case nil:
		return nil, nil
	case []byte:
		raw = b
	case string:
		raw = []byte(b)
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		raw = encoded
		if r.headers.Get("Content-Type") == "" {
			r.headers.Set("Content-Type", "application/json")
		}
	}

	if r.client.traceBodies {
		span.AddEvent("request.body", trace.WithAttributes(
			attribute.String("http.request_body", string(raw)),
		))
	}
	return bytes.NewReader(raw), nil
}

func (r *Request) execute(ctx context.Context, method, target string) (*Response, error) {
	ctx, span := r.client.tracer.Start(ctx, r.client.name+".http",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("client", r.client.name),
		),
	)
	defer span.End()

	full, err := r.resolve(target)
	if err != nil {
		return nil, r.fail(ctx, span, fmt.Errorf("invalid url: %w", err))
	}
	span.SetAttributes(attribute.String("http.url", full))

	body, err := r.encodeBody(span)
	if err != nil {
		return nil, r.fail(ctx, span, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, full, body)
	if err != nil {
		return nil, r.fail(ctx, span, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header = r.headers

	resp, err := r.client.http.Do(req)
	if err != nil {
		return nil, r.fail(ctx, span, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, r.fail(ctx, span, fmt.Errorf("failed to read response body: %w", err))
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if r.client.traceBodies {
		span.AddEvent("response.body", trace.WithAttributes(
			attribute.String("http.response_body", string(raw)),
		))
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}

	if resp.StatusCode >= 400 {
		return out, r.fail(ctx, span, &StatusError{StatusCode: resp.StatusCode, Body: raw})
	}

	if r.result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, r.result); err != nil {
			return out, r.fail(ctx, span, fmt.Errorf("failed to decode response: %w", err))
		}
	}

	r.record(ctx, true)
	return out, nil
}

func (r *Request) fail(ctx context.Context, span trace.Span, err error) error {
	span.RecordError(err)

	var netErr net.Error
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("context.cancelled", true))
	}
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetAttributes(attribute.Bool("request.timeout", true))
	}

	span.SetStatus(codes.Error, err.Error())
	r.record(ctx, false)
	return err
}

func (r *Request) record(ctx context.Context, success bool) {
	attrs := make([]attribute.KeyValue, 0, len(r.labels)+1)
	attrs = append(attrs, attribute.Bool("success", success))
	for _, l := range r.labels {
		attrs = append(attrs, attribute.String(l.Key, l.Value))
	}
	r.client.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
}
