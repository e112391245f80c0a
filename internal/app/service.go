// Package service wires storage, session, transport, realtime, region
// tracking and presence reporting into one process-wide object.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/labsync/internal/adapters/mq/queue"
	"github.com/okian/labsync/internal/adapters/mq/worker"
	"github.com/okian/labsync/internal/adapters/realtime"
	"github.com/okian/labsync/internal/adapters/storage"
	"github.com/okian/labsync/internal/adapters/transport"
	"github.com/okian/labsync/internal/app/api"
	"github.com/okian/labsync/internal/app/presence"
	"github.com/okian/labsync/internal/domain/region"
	"github.com/okian/labsync/internal/session"
	"github.com/okian/labsync/pkg/logger"
	"github.com/okian/labsync/pkg/metrics"
)

const shutdownTimeout = 5 * time.Second

// Service owns every long-lived component of the client.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     storage.Store
	session   *session.Session
	transport *transport.Client
	api       *api.Client
	realtime  *realtime.Manager
	tracker   *region.Tracker
	queue     *queue.InMemoryQueue
	worker    *worker.InMemoryWorker
	presence  *presence.Publisher

	// Configuration
	storageDriver  string
	storageDSN     string
	settings       *session.Settings
	requestTimeout time.Duration
	pingPeriod     time.Duration
	dialer         realtime.Dialer
	queueSize      int
	autoCheckin    bool
	reconnectDelay time.Duration

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. Nothing is opened until Start.
func New(opts ...Option) *Service {
	s := &Service{
		storageDriver:  storage.DriverMemory,
		pingPeriod:     25 * time.Second,
		queueSize:      64,
		reconnectDelay: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens storage, applies the configured settings and starts the region
// worker and presence reporter. Calling it on a started service does nothing.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting labsync service...")

	if s.store == nil {
		store, err := storage.Open(ctx, s.storageDriver, s.storageDSN)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		s.store = store
	}
	s.logger.Info(ctx, "storage opened", logger.String("driver", s.storageDriver))

	s.session = session.New(s.store, session.WithLogger(s.logger.Named("session")))
	if s.settings != nil {
		if err := s.session.Configure(ctx, *s.settings); err != nil {
			_ = s.store.Close()
			s.store = nil
			return fmt.Errorf("configure session: %w", err)
		}
	}

	s.transport = transport.New(s.session,
		transport.WithTimeout(s.requestTimeout),
		transport.WithLogger(s.logger.Named("transport")),
	)
	s.api = api.New(s.transport, s.session, api.WithLogger(s.logger.Named("api")))

	rtOpts := []realtime.Option{
		realtime.WithPingPeriod(s.pingPeriod),
		realtime.WithLogger(s.logger.Named("realtime")),
	}
	if s.dialer != nil {
		rtOpts = append(rtOpts, realtime.WithDialer(s.dialer))
	}
	s.realtime = realtime.New(s.session, rtOpts...)
	if cur, err := s.session.Settings(ctx); err == nil {
		s.realtime.Reconfigure(cur)
	}
	s.session.OnConfigure(s.realtime.Reconfigure)

	s.tracker = region.NewTracker(region.WithLogger(s.logger.Named("region")))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.NewInMemoryWorker(s.queue, s.tracker,
		worker.WithName("region"),
		worker.WithLogger(s.logger.Named("worker")),
	)
	s.presence = presence.New(s.tracker, s.api, s.session,
		presence.WithAutoCheckin(s.autoCheckin),
		presence.WithLogger(s.logger.Named("presence")),
	)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.worker.Run(runCtx)
	s.presence.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "labsync service started",
		logger.Int("queueSize", s.queueSize),
		logger.Bool("autoCheckin", s.autoCheckin),
		logger.Bool("configured", s.settings != nil),
	)
	return nil
}

// Stop shuts every component down. Queued region signals are applied first.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping labsync service...")

	// drain pending signals before presence stops listening
	_ = s.queue.Close()
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	select {
	case <-s.worker.Done():
	case <-shutdownCtx.Done():
		_ = s.worker.Shutdown(shutdownCtx)
	}
	cancel()

	s.presence.Stop()
	s.realtime.Close()
	s.cancel()

	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "closing storage failed", logger.Error(err))
	}
	s.store = nil

	s.started = false
	s.logger.Info(ctx, "labsync service stopped")
}

// Enqueue submits a region signal for the worker.
func (s *Service) Enqueue(ctx context.Context, sig region.Signal) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return s.queue.Enqueue(ctx, sig)
}

// Session returns the session, or nil before Start.
func (s *Service) Session() *session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// API returns the request orchestration client, or nil before Start.
func (s *Service) API() *api.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.api
}

// Realtime returns the observation manager, or nil before Start.
func (s *Service) Realtime() *realtime.Manager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.realtime
}

// Tracker returns the region tracker, or nil before Start.
func (s *Service) Tracker() *region.Tracker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":   s.started,
		"queueSize": s.queueSize,
	}
	if !s.started {
		return stats
	}

	queueLen := s.queue.Len()
	inside := s.tracker.Inside()
	names := make([]string, len(inside))
	for i, r := range inside {
		names[i] = r.Name
	}
	location := ""
	if r, ok := s.tracker.CurrentLocation(); ok {
		location = r.Name
	}

	stats["queueLength"] = queueLen
	stats["inside"] = names
	stats["location"] = location
	stats["signedIn"] = s.session.SignedIn(ctx)
	stats["realtimePaused"] = s.realtime.Paused()

	metrics.UpdateQueueSize(queueLen)
	return stats
}
