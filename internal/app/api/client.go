// Package api exposes one method per server endpoint. Methods combine the
// transport, the decoders and the session, and check domain preconditions
// before any request is sent.
package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/okian/labsync/internal/adapters/transport"
	"github.com/okian/labsync/internal/domain/apierr"
	"github.com/okian/labsync/internal/domain/model"
	"github.com/okian/labsync/pkg/future"
	"github.com/okian/labsync/pkg/logger"
)

// Credentials is the part of the session sign-in and sign-out touch.
type Credentials interface {
	SerializeSignIn(fn func() error) error
	SetCredentials(ctx context.Context, token string, m *model.Member) error
	SignOut(ctx context.Context) error
	CurrentMember(ctx context.Context) (*model.Member, error)
}

// Client performs domain operations against the server.
type Client struct {
	doer   transport.Doer
	creds  Credentials
	logger logger.Logger
}

// New builds a Client sending requests through doer.
func New(doer transport.Doer, creds Credentials, opts ...Option) *Client {
	c := &Client{
		doer:   doer,
		creds:  creds,
		logger: logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Async runs fn in the background. Abandoning the future does not cancel fn.
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) *future.Future[T] {
	detached := context.WithoutCancel(ctx)
	return future.Go(func() (T, error) {
		return fn(detached)
	})
}

func (c *Client) get(ctx context.Context, path, route string, query url.Values) *transport.Response {
	return c.doer.Do(ctx, transport.Request{Method: http.MethodGet, Path: path, Query: query, Route: route})
}

func (c *Client) send(ctx context.Context, method, path, route string, body any) *transport.Response {
	return c.doer.Do(ctx, transport.Request{Method: method, Path: path, Body: body, Route: route})
}

func (c *Client) del(ctx context.Context, path, route string, query url.Values) *transport.Response {
	return c.doer.Do(ctx, transport.Request{Method: http.MethodDelete, Path: path, Query: query, Route: route})
}

func decodeList[T any](resp *transport.Response, decode func(model.Payload) (T, bool)) ([]T, error) {
	v, err := resp.Value()
	if err != nil {
		return nil, err
	}
	if _, ok := v.([]any); !ok {
		return nil, apierr.New(apierr.KindUnexpectedResponse, resp.Op)
	}
	return model.DecodeList(v, decode), nil
}

func decodeOne[T any](resp *transport.Response, decode func(model.Payload) (T, bool)) (T, error) {
	var zero T
	v, err := resp.Value()
	if err != nil {
		return zero, err
	}
	out, ok := model.DecodeOne(v, decode)
	if !ok {
		return zero, apierr.New(apierr.KindUnexpectedResponse, resp.Op)
	}
	return out, nil
}

func decodeField[T any](resp *transport.Response, key string, decode func(model.Payload) (T, bool)) (T, error) {
	var zero T
	v, err := resp.Value()
	if err != nil {
		return zero, err
	}
	p, ok := model.AsPayload(v)
	if !ok {
		return zero, apierr.New(apierr.KindUnexpectedResponse, resp.Op)
	}
	out, ok := model.DecodeOne(p[key], decode)
	if !ok {
		return zero, apierr.New(apierr.KindUnexpectedResponse, resp.Op)
	}
	return out, nil
}

func decodeBool(resp *transport.Response, key string) (bool, error) {
	v, err := resp.Value()
	if err != nil {
		return false, err
	}
	p, ok := model.AsPayload(v)
	if !ok {
		return false, apierr.New(apierr.KindUnexpectedResponse, resp.Op)
	}
	b, ok := p.Bool(key)
	if !ok {
		return false, apierr.New(apierr.KindUnexpectedResponse, resp.Op)
	}
	return b, nil
}

func escape(id string) string { return url.PathEscape(id) }
