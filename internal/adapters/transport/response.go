package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/okian/labsync/internal/domain/apierr"
)

// Response is the immutable result of one request.
type Response struct {
	Op        string // "METHOD /path", used in error messages
	Status    int
	Body      []byte
	Transport error // set when no HTTP response was received

	jsonOnce sync.Once
	jsonVal  any
	jsonErr  error
}

// Success reports whether the server answered 200.
func (r *Response) Success() bool {
	return r.Transport == nil && r.Status == http.StatusOK
}

// Classified returns the error for the transport failure or the status code,
// or nil for a 200. A malformed body is not detected here; see JSON.
func (r *Response) Classified() error {
	if r.Transport != nil {
		var e *apierr.Error
		if errors.As(r.Transport, &e) {
			return r.Transport
		}
		return apierr.Wrap(apierr.KindNetwork, r.Op, r.Transport)
	}
	if e := apierr.FromStatus(r.Op, r.Status, r.Body); e != nil {
		return e
	}
	return nil
}

// JSON parses the body on first call. The result is cached.
func (r *Response) JSON() (any, error) {
	r.jsonOnce.Do(func() {
		if err := json.Unmarshal(r.Body, &r.jsonVal); err != nil {
			r.jsonVal = nil
			r.jsonErr = &apierr.Error{Kind: apierr.KindInvalidJSON, Op: r.Op, Status: r.Status, Body: apierr.BodyText(r.Body), Err: err}
		}
	})
	return r.jsonVal, r.jsonErr
}

// Value resolves the response in order: transport error, status error, JSON
// parse error, then the decoded body.
func (r *Response) Value() (any, error) {
	if err := r.Classified(); err != nil {
		return nil, err
	}
	return r.JSON()
}

// Decode resolves the response like Value and unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := r.Classified(); err != nil {
		return err
	}
	if _, err := r.JSON(); err != nil {
		return err
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return apierr.Wrap(apierr.KindUnexpectedResponse, r.Op, err)
	}
	return nil
}
