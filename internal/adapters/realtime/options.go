package realtime

import (
	"time"

	"github.com/okian/labsync/pkg/logger"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithDialer replaces the websocket dialer.
func WithDialer(d Dialer) Option {
	return func(m *Manager) {
		if d != nil {
			m.dialer = d
		}
	}
}

// WithDispatcher runs every listener callback through d, e.g. to hop onto a
// host event loop. d must run callbacks in submission order.
func WithDispatcher(d Dispatcher) Option {
	return func(m *Manager) {
		if d != nil {
			m.dispatch = d
		}
	}
}

// WithPingPeriod sets the keep-alive interval. Zero disables pings.
func WithPingPeriod(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.pingPeriod = d
		}
	}
}

// WithHandshakeTimeout bounds the authenticate round trip.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.handshakeTimeout = d
		}
	}
}

// WithAutoSwitching sets the initial background policy; Reconfigure updates it.
func WithAutoSwitching(enabled bool) Option {
	return func(m *Manager) {
		m.autoSwitch.Store(enabled)
	}
}

// WithLogger sets a custom logger for the manager.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// HandleOption configures a single subscription.
type HandleOption func(*listener)

// Restartable lets the handle re-establish its topic after a disconnect.
func Restartable() HandleOption {
	return func(l *listener) {
		l.restartable = true
	}
}
