package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Frame names.
const (
	EventAuthenticate  = "authenticate"
	EventAuthenticated = "authenticated"
	EventUnauthorized  = "unauthorized"
	EventJoin          = "join"
)

const defaultWriteWait = 10 * time.Second

// Frame is one message on a topic connection.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewFrame encodes data into a frame named event.
func NewFrame(event string, data any) (Frame, error) {
	f := Frame{Event: event}
	if data == nil {
		return f, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s frame: %w", event, err)
	}
	f.Data = raw
	return f, nil
}

// Conn is one live topic connection. ReadFrame is called from a single
// goroutine; WriteFrame only during the handshake. Ping and Close may be
// called concurrently with either.
type Conn interface {
	ReadFrame() (Frame, error)
	WriteFrame(Frame) error
	Ping() error
	Close() error
}

// Dialer opens topic connections.
type Dialer interface {
	Dial(ctx context.Context, rawURL string) (Conn, error)
}

// WebsocketDialer dials topics with gorilla/websocket.
type WebsocketDialer struct {
	dialer    *websocket.Dialer
	writeWait time.Duration
}

// NewWebsocketDialer wraps d, or websocket.DefaultDialer when d is nil.
func NewWebsocketDialer(d *websocket.Dialer) *WebsocketDialer {
	if d == nil {
		d = websocket.DefaultDialer
	}
	return &WebsocketDialer{dialer: d, writeWait: defaultWriteWait}
}

// Dial implements Dialer.
func (d *WebsocketDialer) Dial(ctx context.Context, rawURL string) (Conn, error) {
	c, _, err := d.dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	return &wsConn{conn: c, writeWait: d.writeWait}, nil
}

type wsConn struct {
	conn      *websocket.Conn
	writeWait time.Duration
	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) ReadFrame() (Frame, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return Frame{}, err
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return f, nil
}

func (c *wsConn) WriteFrame(f Frame) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	return c.conn.WriteJSON(f)
}

func (c *wsConn) Ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeWait))
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// socketURL maps an http(s) server URL and a namespace to a ws(s) URL.
func socketURL(serverURL, namespace string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + namespace
	return u.String(), nil
}
