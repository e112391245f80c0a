package service

import (
	"time"

	"github.com/okian/labsync/internal/adapters/realtime"
	"github.com/okian/labsync/internal/adapters/storage"
	"github.com/okian/labsync/internal/session"
	"github.com/okian/labsync/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStorage selects the durable store opened by Start.
func WithStorage(driver, dsn string) Option {
	return func(s *Service) {
		s.storageDriver = driver
		s.storageDSN = dsn
	}
}

// WithStore uses an already open store. Stop closes it.
func WithStore(store storage.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithSettings configures the session on Start. Without it the persisted
// configuration is used.
func WithSettings(cfg session.Settings) Option {
	return func(s *Service) {
		s.settings = &cfg
	}
}

// WithRequestTimeout bounds every HTTP request. Zero disables it.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.requestTimeout = d
		}
	}
}

// WithPingPeriod sets the realtime keep-alive interval. Zero disables pings.
func WithPingPeriod(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.pingPeriod = d
		}
	}
}

// WithDialer replaces the websocket dialer.
func WithDialer(d realtime.Dialer) Option {
	return func(s *Service) {
		if d != nil {
			s.dialer = d
		}
	}
}

// WithQueueSize sets the capacity of the region signal queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithAutoCheckin checks in when the check-in-event region is entered.
func WithAutoCheckin(enabled bool) Option {
	return func(s *Service) {
		s.autoCheckin = enabled
	}
}

// WithReconnectDelay sets how long Follow waits before restarting a
// disconnected topic. Zero disables restarts.
func WithReconnectDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.reconnectDelay = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
