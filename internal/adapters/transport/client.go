// Package transport performs authenticated JSON requests against the labsync
// server and wraps every outcome in a Response.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/labsync/internal/domain/apierr"
	"github.com/okian/labsync/internal/session"
	"github.com/okian/labsync/pkg/future"
	"github.com/okian/labsync/pkg/logger"
	"github.com/okian/labsync/pkg/metrics"
)

const defaultUserAgent = "labsync/1.0"

// Endpointer supplies the server URL and credentials for each request.
type Endpointer interface {
	Endpoint(ctx context.Context) (session.Endpoint, error)
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is serialized with encoding/json as-is; nil sends no body.
	Body any
	// Route labels metrics, e.g. "/api/equipment/{id}". Defaults to Path.
	Route string
}

// Doer is the part of Client that request orchestration depends on.
type Doer interface {
	Do(ctx context.Context, req Request) *Response
}

var _ Doer = (*Client)(nil)

// Client talks to the labsync HTTP API.
type Client struct {
	endpoints Endpointer
	http      *http.Client
	userAgent string
	timeout   time.Duration
	logger    logger.Logger
}

// New builds a Client reading its endpoint from endpoints on every request.
func New(endpoints Endpointer, opts ...Option) *Client {
	c := &Client{
		endpoints: endpoints,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
		logger:    logger.Get().Named("transport"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Go runs req in the background. Abandoning the returned future does not
// cancel the request.
func (c *Client) Go(ctx context.Context, req Request) *future.Future[*Response] {
	detached := context.WithoutCancel(ctx)
	return future.Go(func() (*Response, error) {
		return c.Do(detached, req), nil
	})
}

// Do performs req and always returns a Response.
func (c *Client) Do(ctx context.Context, req Request) *Response {
	op := req.Method + " " + req.Path
	route := req.Route
	if route == "" {
		route = req.Path
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp := c.do(ctx, op, req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	status := strconv.Itoa(resp.Status)
	if resp.Transport != nil {
		status = "error"
	}
	metrics.RecordHTTPRequest(route, req.Method, status)
	metrics.RecordHTTPRequestDuration(route, req.Method, status, elapsed)

	if err := resp.Classified(); err != nil {
		metrics.RecordAPIError(string(apierr.KindOf(err)))
		c.logger.Debug(ctx, "request failed",
			logger.String("op", op),
			logger.Int("status", resp.Status),
			logger.Error(err),
		)
	} else {
		c.logger.Debug(ctx, "request done", logger.String("op", op), logger.Int("status", resp.Status))
	}
	return resp
}

func (c *Client) do(ctx context.Context, op string, req Request) *Response {
	ep, err := c.endpoints.Endpoint(ctx)
	if err != nil {
		return &Response{Op: op, Transport: err}
	}

	target, err := url.Parse(ep.ServerURL + req.Path)
	if err != nil {
		return &Response{Op: op, Transport: apierr.Wrap(apierr.KindBadRequest, op, err)}
	}
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return &Response{Op: op, Transport: apierr.Wrap(apierr.KindBadRequest, op, fmt.Errorf("encode body: %w", err))}
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return &Response{Op: op, Transport: apierr.Wrap(apierr.KindBadRequest, op, fmt.Errorf("create request: %w", err))}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	switch {
	case ep.Token != "":
		httpReq.Header.Set("authorization", ep.Token)
	case ep.APIKey != "":
		httpReq.Header.Set("apiKey", ep.APIKey)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return &Response{Op: op, Transport: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &Response{Op: op, Status: httpResp.StatusCode, Transport: fmt.Errorf("read body: %w", err)}
	}
	return &Response{Op: op, Status: httpResp.StatusCode, Body: data}
}
