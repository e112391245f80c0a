// Package apierr defines the closed set of error kinds surfaced by labsync
// operations, and the Error value that carries them.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Kind identifies a category of failure.
type Kind string

// Error kinds.
const (
	KindUnknown            Kind = "unknown"
	KindNetwork            Kind = "network"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindUnprocessable      Kind = "unprocessable"
	KindBadRequest         Kind = "bad-request"
	KindNotFound           Kind = "not-found"
	KindUnexpectedResponse Kind = "unexpected-response"
	KindInvalidJSON        Kind = "invalid-json"
	KindAlreadyCheckedOut  Kind = "already-checked-out"
	KindAlreadyCreated     Kind = "already-created"
	KindNotConfigured      Kind = "not-configured"
)

// Sentinel kinds. errors.Is(err, ErrNotFound) holds for any *Error of that kind.
var (
	ErrUnknown            = errors.New("unknown error")
	ErrNetwork            = errors.New("network failure")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrUnprocessable      = errors.New("unprocessable")
	ErrBadRequest         = errors.New("bad request")
	ErrNotFound           = errors.New("not found")
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrInvalidJSON        = errors.New("invalid json")
	ErrAlreadyCheckedOut  = errors.New("already checked out")
	ErrAlreadyCreated     = errors.New("already created")
	ErrNotConfigured      = errors.New("not configured")
)

var sentinels = map[Kind]error{
	KindUnknown:            ErrUnknown,
	KindNetwork:            ErrNetwork,
	KindUnauthorized:       ErrUnauthorized,
	KindForbidden:          ErrForbidden,
	KindUnprocessable:      ErrUnprocessable,
	KindBadRequest:         ErrBadRequest,
	KindNotFound:           ErrNotFound,
	KindUnexpectedResponse: ErrUnexpectedResponse,
	KindInvalidJSON:        ErrInvalidJSON,
	KindAlreadyCheckedOut:  ErrAlreadyCheckedOut,
	KindAlreadyCreated:     ErrAlreadyCreated,
	KindNotConfigured:      ErrNotConfigured,
}

var summaries = map[Kind]string{
	KindUnknown:            "Something went wrong",
	KindNetwork:            "Could not reach the server",
	KindUnauthorized:       "You are not signed in",
	KindForbidden:          "This app is not allowed to talk to the server",
	KindUnprocessable:      "The server rejected the request",
	KindBadRequest:         "The request was malformed",
	KindNotFound:           "Not found",
	KindUnexpectedResponse: "The server sent something unexpected",
	KindInvalidJSON:        "The server sent an unreadable response",
	KindAlreadyCheckedOut:  "The equipment is not available for that",
	KindAlreadyCreated:     "It already exists",
	KindNotConfigured:      "No server is configured",
}

const maxBodyInMessage = 256

// Error is the value every labsync operation fails with.
type Error struct {
	Kind   Kind
	Op     string // operation or endpoint that failed
	Status int    // HTTP status, 0 when not applicable
	Body   string // raw response text, best effort
	Err    error  // underlying transport or parse error
}

// New builds an Error of kind for op.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// Wrap builds an Error of kind for op around err.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Body != "" {
		body := e.Body
		if len(body) > maxBodyInMessage {
			cut := maxBodyInMessage
			for cut > 0 && !utf8.RuneStart(body[cut]) {
				cut--
			}
			body = body[:cut] + "..."
		}
		fmt.Fprintf(&b, ": %s", body)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes the kind sentinel and the underlying error.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if s, ok := sentinels[e.Kind]; ok {
		out = append(out, s)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Summary is a short human readable description of the kind.
func (e *Error) Summary() string {
	if s, ok := summaries[e.Kind]; ok {
		return s
	}
	return summaries[KindUnknown]
}

// Fatal reports whether retrying cannot help.
func (e *Error) Fatal() bool {
	return e.Kind == KindForbidden || e.Kind == KindNotConfigured
}

// FromStatus classifies a non-200 HTTP status. It returns nil for 200.
func FromStatus(op string, status int, body []byte) *Error {
	var kind Kind
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		kind = KindUnauthorized
	case http.StatusForbidden:
		kind = KindForbidden
	case http.StatusUnprocessableEntity:
		kind = KindUnprocessable
	case http.StatusBadRequest:
		kind = KindBadRequest
	case http.StatusNotFound:
		kind = KindNotFound
	default:
		kind = KindUnknown
	}
	return &Error{Kind: kind, Op: op, Status: status, Body: BodyText(body)}
}

// BodyText decodes body as UTF-8, replacing invalid sequences.
func BodyText(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if utf8.Valid(body) {
		return string(body)
	}
	return strings.ToValidUTF8(string(body), string(utf8.RuneError))
}

// KindOf returns the kind of err, KindUnknown for foreign errors and "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsFatal reports whether err carries a fatal kind.
func IsFatal(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Fatal()
}

// Summary returns a presentable description for any error.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Summary()
	}
	return summaries[KindUnknown]
}
