package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/labsync/internal/domain/apierr"
	"github.com/okian/labsync/internal/session"
	. "github.com/smartystreets/goconvey/convey"
)

type staticEndpoint struct {
	ep  session.Endpoint
	err error
}

func (s staticEndpoint) Endpoint(context.Context) (session.Endpoint, error) { return s.ep, s.err }

type captured struct {
	method, path, query, body string
	header                    http.Header
}

func newServer(status int, body string, seen *captured) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		if seen != nil {
			*seen = captured{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: string(data), header: r.Header.Clone()}
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
}

func TestClientHeaders(t *testing.T) {
	Convey("Given a server that records requests", t, func() {
		ctx := context.Background()
		var seen captured
		srv := newServer(http.StatusOK, `{"ok":true}`, &seen)
		defer srv.Close()

		Convey("When a token and API key are both present", func() {
			c := New(staticEndpoint{ep: session.Endpoint{ServerURL: srv.URL, Token: "tok", APIKey: "key"}})
			resp := c.Do(ctx, Request{
				Method: http.MethodPost,
				Path:   "/api/events",
				Query:  url.Values{"hidden": []string{"true"}},
				Body:   map[string]any{"name": "Demo"},
			})

			Convey("Then only the token is sent with JSON headers, query and raw body", func() {
				So(resp.Success(), ShouldBeTrue)
				So(seen.method, ShouldEqual, http.MethodPost)
				So(seen.path, ShouldEqual, "/api/events")
				So(seen.query, ShouldEqual, "hidden=true")
				So(seen.body, ShouldEqual, `{"name":"Demo"}`)
				So(seen.header.Get("authorization"), ShouldEqual, "tok")
				So(seen.header.Get("apiKey"), ShouldBeEmpty)
				So(seen.header.Get("Content-Type"), ShouldEqual, "application/json")
				So(seen.header.Get("Accept"), ShouldEqual, "application/json")
			})
		})

		Convey("When only an API key is present", func() {
			c := New(staticEndpoint{ep: session.Endpoint{ServerURL: srv.URL, APIKey: "key"}})
			c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/food"})

			Convey("Then the apiKey header is sent and no body", func() {
				So(seen.header.Get("apiKey"), ShouldEqual, "key")
				So(seen.header.Get("authorization"), ShouldBeEmpty)
				So(seen.body, ShouldBeEmpty)
			})
		})

		Convey("When no credential is present", func() {
			c := New(staticEndpoint{ep: session.Endpoint{ServerURL: srv.URL}})
			c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/events/public/week"})

			Convey("Then no auth header is sent", func() {
				So(seen.header.Get("authorization"), ShouldBeEmpty)
				So(seen.header.Get("apiKey"), ShouldBeEmpty)
			})
		})
	})
}

func TestClassification(t *testing.T) {
	Convey("Given servers answering with various statuses", t, func() {
		ctx := context.Background()

		do := func(status int, body string) *Response {
			srv := newServer(status, body, nil)
			defer srv.Close()
			return New(staticEndpoint{ep: session.Endpoint{ServerURL: srv.URL}}).Do(ctx, Request{Method: http.MethodGet, Path: "/x"})
		}

		Convey("When the status is 401 or 404", func() {
			Convey("Then they classify as unauthorized and not-found", func() {
				So(errors.Is(do(http.StatusUnauthorized, "").Classified(), apierr.ErrUnauthorized), ShouldBeTrue)
				So(errors.Is(do(http.StatusNotFound, "").Classified(), apierr.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the status is unusual", func() {
			resp := do(http.StatusTeapot, "short and stout")

			Convey("Then it is unknown with status and body", func() {
				var e *apierr.Error
				So(errors.As(resp.Classified(), &e), ShouldBeTrue)
				So(e.Kind, ShouldEqual, apierr.KindUnknown)
				So(e.Status, ShouldEqual, http.StatusTeapot)
				So(e.Body, ShouldEqual, "short and stout")
			})
		})

		Convey("When a 200 carries an unparsable body", func() {
			resp := do(http.StatusOK, "{nope")

			Convey("Then nothing fails until JSON is requested", func() {
				So(resp.Success(), ShouldBeTrue)
				So(resp.Classified(), ShouldBeNil)
				_, err := resp.JSON()
				So(errors.Is(err, apierr.ErrInvalidJSON), ShouldBeTrue)
				_, err = resp.Value()
				So(errors.Is(err, apierr.ErrInvalidJSON), ShouldBeTrue)
			})
		})

		Convey("When a 404 also carries an unparsable body", func() {
			resp := do(http.StatusNotFound, "{nope")

			Convey("Then the status error wins", func() {
				_, err := resp.Value()
				So(errors.Is(err, apierr.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a 200 has a valid body", func() {
			resp := do(http.StatusOK, `{"hasVoted":true}`)

			Convey("Then Decode fills the target", func() {
				var out struct {
					HasVoted bool `json:"hasVoted"`
				}
				So(resp.Decode(&out), ShouldBeNil)
				So(out.HasVoted, ShouldBeTrue)
			})
		})
	})
}

func TestFailures(t *testing.T) {
	Convey("Given failures before any HTTP status", t, func() {
		ctx := context.Background()

		Convey("When the server is unreachable", func() {
			srv := newServer(http.StatusOK, "", nil)
			addr := srv.URL
			srv.Close()
			resp := New(staticEndpoint{ep: session.Endpoint{ServerURL: addr}}).Do(ctx, Request{Method: http.MethodGet, Path: "/api/events"})

			Convey("Then a network error is surfaced, distinct from status errors", func() {
				So(resp.Success(), ShouldBeFalse)
				So(resp.Transport, ShouldNotBeNil)
				So(apierr.KindOf(resp.Classified()), ShouldEqual, apierr.KindNetwork)
			})
		})

		Convey("When the session is not configured", func() {
			resp := New(staticEndpoint{err: apierr.New(apierr.KindNotConfigured, "session")}).Do(ctx, Request{Method: http.MethodGet, Path: "/api/events"})

			Convey("Then the fatal configuration error passes through", func() {
				So(errors.Is(resp.Classified(), apierr.ErrNotConfigured), ShouldBeTrue)
				So(apierr.IsFatal(resp.Classified()), ShouldBeTrue)
			})
		})

		Convey("When the timeout elapses", func() {
			release := make(chan struct{})
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-release:
				case <-r.Context().Done():
				}
			}))
			defer srv.Close()
			defer close(release)
			c := New(staticEndpoint{ep: session.Endpoint{ServerURL: srv.URL}}, WithTimeout(20*time.Millisecond))
			resp := c.Do(ctx, Request{Method: http.MethodGet, Path: "/slow"})

			Convey("Then it is a network error", func() {
				So(apierr.KindOf(resp.Classified()), ShouldEqual, apierr.KindNetwork)
			})
		})
	})
}

func TestGo(t *testing.T) {
	Convey("Given a slow server", t, func() {
		var hits atomic.Int32
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
			hits.Add(1)
			_, _ = io.WriteString(w, `[]`)
		}))
		defer srv.Close()
		c := New(staticEndpoint{ep: session.Endpoint{ServerURL: srv.URL}})

		Convey("When the waiter gives up", func() {
			waitCtx, cancel := context.WithCancel(context.Background())
			f := c.Go(waitCtx, Request{Method: http.MethodGet, Path: "/api/photos"})
			cancel()
			_, err := f.Await(waitCtx)
			close(release)

			Convey("Then the request still completes", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				resp, err := f.Await(context.Background())
				So(err, ShouldBeNil)
				So(resp.Success(), ShouldBeTrue)
				So(hits.Load(), ShouldEqual, 1)
			})
		})
	})
}
