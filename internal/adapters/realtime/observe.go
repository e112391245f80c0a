package realtime

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/okian/labsync/internal/domain/apierr"
	"github.com/okian/labsync/pkg/metrics"
)

// Update is one delivery to a listener. Exactly one of Value or Err is
// meaningful; Disconnected marks a connection loss, after which the handle
// stays registered.
type Update[T any] struct {
	Value        T
	Err          error
	Disconnected bool
}

// Observe subscribes fn to sub. The first subscription of a topic dials it;
// later ones share the connection. The last value received for sub.Event is
// delivered first once the topic is open.
func Observe[T any](m *Manager, sub Subscription[T], fn func(Update[T]), opts ...HandleOption) (*Handle, error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}
	op := "observe " + sub.Topic.String()
	l := &listener{
		id:       uuid.New(),
		event:    sub.Event,
		dispatch: m.dispatch,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.fn = func(raw any, err error, disconnected bool) {
		if err != nil || disconnected {
			fn(Update[T]{Err: err, Disconnected: disconnected})
			return
		}
		v, ok := sub.Decode(raw)
		if !ok {
			metrics.RecordRealtimeDecodeError(sub.Topic.String(), sub.Event)
			fn(Update[T]{Err: apierr.New(apierr.KindUnexpectedResponse, op)})
			return
		}
		fn(Update[T]{Value: v})
	}

	l.ch = m.channel(sub.Topic)
	if l.ch.add(l) {
		l.catchUp()
	}
	return &Handle{l: l}, nil
}

// Handle is one subscription.
type Handle struct {
	l *listener
}

// ID identifies the subscription.
func (h *Handle) ID() string { return h.l.id.String() }

// Topic is the topic the handle is attached to.
func (h *Handle) Topic() Topic { return h.l.ch.topic }

// Restartable reports whether Restart is supported.
func (h *Handle) Restartable() bool { return h.l.restartable }

// Stop unregisters the handle. No callback runs after Stop returns; a
// callback in flight on another goroutine is waited for. Called from inside
// the handle's own callback it returns at once. Calling it again does nothing.
func (h *Handle) Stop() {
	l := h.l
	if !l.stopped.CompareAndSwap(false, true) {
		return
	}
	if l.owner.Load() != goid() {
		l.cbMu.Lock()
		l.cbMu.Unlock() //nolint:staticcheck // waits out the running callback
	}
	l.ch.remove(l)
}

// Restart re-establishes the topic after a disconnect. It is a no-op while
// the topic is connecting or open.
func (h *Handle) Restart() error {
	if !h.l.restartable {
		return ErrRestartUnsupported
	}
	if h.l.stopped.Load() {
		return ErrHandleStopped
	}
	if h.l.ch.m.closed.Load() {
		return ErrManagerClosed
	}
	h.l.ch.ensure()
	return nil
}

type listener struct {
	id          uuid.UUID
	event       string
	restartable bool
	dispatch    Dispatcher
	fn          func(raw any, err error, disconnected bool)
	ch          *channel

	mu      sync.Mutex // serializes deliveries
	lastSeq uint64
	stopped atomic.Bool

	cbMu  sync.Mutex    // held while fn runs
	owner atomic.Uint64 // goroutine running fn, 0 when idle
}

func (l *listener) deliver(seq uint64, raw any, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped.Load() || seq <= l.lastSeq {
		return
	}
	l.lastSeq = seq
	l.invoke(raw, err, false)
}

// catchUp delivers the cached value unless something newer was delivered.
func (l *listener) catchUp() {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.ch.cachedValue(l.event)
	if !ok || l.stopped.Load() || c.seq <= l.lastSeq {
		return
	}
	l.lastSeq = c.seq
	l.invoke(c.raw, nil, false)
}

func (l *listener) disconnected(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped.Load() {
		return
	}
	l.invoke(nil, err, true)
}

func (l *listener) invoke(raw any, err error, disconnected bool) {
	l.dispatch(func() {
		l.cbMu.Lock()
		defer l.cbMu.Unlock()
		if l.stopped.Load() {
			return
		}
		l.owner.Store(goid())
		defer l.owner.Store(0)
		l.fn(raw, err, disconnected)
	})
}

// goid returns the id of the calling goroutine from its stack header
// ("goroutine 42 [running]:").
func goid() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	id := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(id, ' '); i >= 0 {
		id = id[:i]
	}
	v, _ := strconv.ParseUint(string(id), 10, 64)
	return v
}
