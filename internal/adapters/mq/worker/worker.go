// Package worker applies queued region signals to the tracker. A single
// worker owns the region set, so signals are applied strictly in order.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/labsync/internal/adapters/mq/queue"
	"github.com/okian/labsync/internal/domain/region"
	"github.com/okian/labsync/pkg/logger"
	"github.com/okian/labsync/pkg/metrics"
)

// Applier applies one signal to the region state.
type Applier interface {
	Apply(ctx context.Context, s queue.Signal) (region.Change, error)
}

// Queue defines how workers receive signals.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Signal
}

// Worker processes signals until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called or
	// the queue is closed and drained.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the loop to exit.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for an in-process queue.
type InMemoryWorker struct {
	queue   Queue
	applier Applier
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, applier Applier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		applier:  applier,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	metrics.UpdateWorkerCount(1)
	defer func() {
		metrics.UpdateWorkerCount(0)
		close(w.done)
	}()

	signals := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-signals:
			if !ok {
				return
			}
			if err := w.process(ctx, s); err != nil {
				w.logger.Error(ctx, "error applying region signal", logger.Error(err))
			}
		}
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, s queue.Signal) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	change, err := w.applier.Apply(ctx, s)
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("apply %s %s: %w", s.Kind, s.Region.Name, err)
	}
	w.logger.Debug(ctx, "region signal applied",
		logger.String("signal", s.Kind.String()),
		logger.String("region", s.Region.Name),
		logger.String("change", change.String()),
	)
	return nil
}
