// Package realtime keeps one websocket per topic and multiplexes local
// listeners onto it. A topic connects on its first listener and is torn down
// when its last listener stops; the last value received on each event is
// cached and replayed to listeners when their connection opens.
package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/labsync/internal/session"
	"github.com/okian/labsync/pkg/logger"
)

const (
	defaultPingPeriod       = 25 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
)

// State is the connection state of a topic.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Endpointer supplies the server URL and credentials for each connection.
type Endpointer interface {
	Endpoint(ctx context.Context) (session.Endpoint, error)
}

// Dispatcher runs a listener callback.
type Dispatcher func(func())

func direct(fn func()) { fn() }

// Manager owns every topic connection.
type Manager struct {
	endpoints        Endpointer
	dialer           Dialer
	dispatch         Dispatcher
	pingPeriod       time.Duration
	handshakeTimeout time.Duration
	logger           logger.Logger

	mu       sync.Mutex
	channels map[Topic]*channel

	paused     atomic.Bool
	closed     atomic.Bool
	autoSwitch atomic.Bool
	applied    atomic.Pointer[session.Settings]

	wg sync.WaitGroup
}

// New builds a Manager that reads its endpoint from endpoints on every dial.
func New(endpoints Endpointer, opts ...Option) *Manager {
	m := &Manager{
		endpoints:        endpoints,
		dialer:           NewWebsocketDialer(nil),
		dispatch:         direct,
		pingPeriod:       defaultPingPeriod,
		handshakeTimeout: defaultHandshakeTimeout,
		logger:           logger.Get().Named("realtime"),
		channels:         make(map[Topic]*channel),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State reports the connection state of t.
func (m *Manager) State(t Topic) State {
	ch := m.lookup(t)
	if ch == nil {
		return StateClosed
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// Listeners reports how many handles are registered on t.
func (m *Manager) Listeners(t Topic) int {
	ch := m.lookup(t)
	if ch == nil {
		return 0
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.listeners)
}

// Pause closes every connection without touching listener registrations.
// Subscriptions made while paused connect on Resume.
func (m *Manager) Pause() {
	m.paused.Store(true)
	for _, ch := range m.snapshot() {
		ch.suspend()
	}
	m.logger.Info(context.Background(), "realtime paused")
}

// Resume reconnects every topic that still has listeners.
func (m *Manager) Resume() {
	if m.closed.Load() {
		return
	}
	m.paused.Store(false)
	for _, ch := range m.snapshot() {
		ch.ensure()
	}
	m.logger.Info(context.Background(), "realtime resumed")
}

// Paused reports whether connections are held closed.
func (m *Manager) Paused() bool { return m.paused.Load() }

// Background pauses when socket auto-switching is enabled.
func (m *Manager) Background() {
	if m.autoSwitch.Load() {
		m.Pause()
	}
}

// Foreground resumes when socket auto-switching is enabled.
func (m *Manager) Foreground() {
	if m.autoSwitch.Load() {
		m.Resume()
	}
}

// Reconfigure applies new session settings: the auto-switching policy is
// updated, and live topics reconnect when the server URL or API key changed.
func (m *Manager) Reconfigure(cfg session.Settings) {
	m.autoSwitch.Store(cfg.SocketAutoSwitching)
	prev := m.applied.Swap(&cfg)
	if prev == nil || prev.ServerURL != cfg.ServerURL || prev.APIKey != cfg.APIKey {
		for _, ch := range m.snapshot() {
			ch.reconnect()
		}
	}
	m.logger.Info(context.Background(), "realtime reconfigured",
		logger.String("server_url", cfg.ServerURL),
		logger.Bool("auto_switching", cfg.SocketAutoSwitching),
	)
}

// Close tears every connection down and waits for their goroutines. Later
// subscriptions fail with ErrManagerClosed.
func (m *Manager) Close() {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}
	m.paused.Store(true)
	for _, ch := range m.snapshot() {
		ch.suspend()
	}
	m.wg.Wait()
}

func (m *Manager) lookup(t Topic) *channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channels[t]
}

func (m *Manager) channel(t Topic) *channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[t]
	if !ok {
		ch = newChannel(m, t)
		m.channels[t] = ch
	}
	return ch
}

func (m *Manager) snapshot() []*channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*channel, 0, len(m.channels))
	for _, ch := range m.channels {
		out = append(out, ch)
	}
	return out
}

func (m *Manager) canConnect() bool {
	return !m.paused.Load() && !m.closed.Load()
}
