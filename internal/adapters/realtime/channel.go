package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/okian/labsync/internal/domain/apierr"
	"github.com/okian/labsync/internal/session"
	"github.com/okian/labsync/pkg/logger"
	"github.com/okian/labsync/pkg/metrics"
)

type cached struct {
	seq uint64
	raw any
}

// channel is the state machine of one topic. Every transition happens under
// mu; gen identifies the current connection attempt so goroutines of a torn
// down connection never touch the new one.
type channel struct {
	m     *Manager
	topic Topic
	name  string

	mu        sync.Mutex
	state     State
	gen       uint64
	conn      Conn
	cancel    context.CancelFunc
	listeners []*listener
	cache     map[string]cached
	seq       uint64
}

func newChannel(m *Manager, t Topic) *channel {
	return &channel{
		m:     m,
		topic: t,
		name:  t.String(),
		cache: make(map[string]cached),
	}
}

// add registers l and reports whether the topic is already open.
func (ch *channel) add(l *listener) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.listeners = append(ch.listeners, l)
	metrics.UpdateRealtimeListeners(ch.name, len(ch.listeners))
	if ch.state == StateClosed && ch.m.canConnect() {
		ch.connectLocked()
	}
	return ch.state == StateOpen
}

// remove unregisters l and tears the connection down with the last listener.
func (ch *channel) remove(l *listener) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for i, cur := range ch.listeners {
		if cur == l {
			ch.listeners = append(ch.listeners[:i:i], ch.listeners[i+1:]...)
			break
		}
	}
	metrics.UpdateRealtimeListeners(ch.name, len(ch.listeners))
	if len(ch.listeners) == 0 {
		ch.closeLocked()
		ch.m.logger.Debug(context.Background(), "topic torn down", logger.String("topic", ch.name))
	}
}

func (ch *channel) ensure() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.state == StateClosed && len(ch.listeners) > 0 && ch.m.canConnect() {
		ch.connectLocked()
	}
}

func (ch *channel) suspend() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.closeLocked()
}

func (ch *channel) reconnect() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.state == StateClosed {
		return
	}
	ch.closeLocked()
	if len(ch.listeners) > 0 && ch.m.canConnect() {
		ch.connectLocked()
	}
}

func (ch *channel) cachedValue(event string) (cached, bool) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	c, ok := ch.cache[event]
	return c, ok
}

func (ch *channel) connectLocked() {
	ch.gen++
	ctx, cancel := context.WithCancel(context.Background())
	ch.cancel = cancel
	ch.state = StateConnecting
	ch.m.wg.Add(1)
	go ch.run(ctx, ch.gen)
}

func (ch *channel) closeLocked() {
	ch.gen++
	if ch.cancel != nil {
		ch.cancel()
		ch.cancel = nil
	}
	if ch.conn != nil {
		_ = ch.conn.Close()
		ch.conn = nil
	}
	if ch.state != StateClosed {
		ch.state = StateClosed
		metrics.UpdateRealtimeConnection(ch.name, false)
	}
}

func (ch *channel) snapshotLocked() []*listener {
	out := make([]*listener, len(ch.listeners))
	copy(out, ch.listeners)
	return out
}

func (ch *channel) run(ctx context.Context, gen uint64) {
	defer ch.m.wg.Done()

	conn, err := ch.dial(ctx)
	if err != nil {
		if ch.fail(gen, err) {
			metrics.RecordRealtimeConnectError(ch.name)
			ch.m.logger.Warn(ctx, "topic connect failed", logger.String("topic", ch.name), logger.Error(err))
		}
		return
	}

	ch.mu.Lock()
	if ch.gen != gen {
		ch.mu.Unlock()
		_ = conn.Close()
		return
	}
	ch.conn = conn
	ch.state = StateOpen
	listeners := ch.snapshotLocked()
	ch.mu.Unlock()

	metrics.UpdateRealtimeConnection(ch.name, true)
	ch.m.logger.Debug(ctx, "topic open", logger.String("topic", ch.name), logger.Int("listeners", len(listeners)))
	for _, l := range listeners {
		l.catchUp()
	}

	if ch.m.pingPeriod > 0 {
		ch.m.wg.Add(1)
		go ch.keepAlive(ctx, conn)
	}
	ch.read(ctx, gen, conn)
}

func (ch *channel) dial(ctx context.Context) (Conn, error) {
	op := "connect " + ch.name
	ep, err := ch.m.endpoints.Endpoint(ctx)
	if err != nil {
		return nil, err
	}
	target, err := socketURL(ep.ServerURL, ch.topic.Namespace)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindBadRequest, op, err)
	}
	conn, err := ch.m.dialer.Dial(ctx, target)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindNetwork, op, err)
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	timer := time.AfterFunc(ch.m.handshakeTimeout, func() { _ = conn.Close() })
	err = ch.handshake(conn, ep, op)
	timer.Stop()
	stop()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// handshake authenticates and joins the entity room. Frames other than the
// authentication answer are dropped until the server has accepted us.
func (ch *channel) handshake(conn Conn, ep session.Endpoint, op string) error {
	auth := map[string]string{}
	switch {
	case ep.Token != "":
		auth["token"] = ep.Token
	case ep.APIKey != "":
		auth["apiKey"] = ep.APIKey
	}
	if err := writeFrame(conn, EventAuthenticate, auth); err != nil {
		return apierr.Wrap(apierr.KindNetwork, op, err)
	}

	for authenticated := false; !authenticated; {
		f, err := conn.ReadFrame()
		if err != nil {
			if errors.Is(err, ErrMalformedFrame) {
				continue
			}
			return apierr.Wrap(apierr.KindNetwork, op, err)
		}
		switch f.Event {
		case EventAuthenticated:
			authenticated = true
		case EventUnauthorized:
			return apierr.New(apierr.KindUnauthorized, op)
		}
	}

	if ch.topic.ID != "" {
		if err := writeFrame(conn, EventJoin, map[string]string{"id": ch.topic.ID}); err != nil {
			return apierr.Wrap(apierr.KindNetwork, op, err)
		}
	}
	return nil
}

func writeFrame(conn Conn, event string, data any) error {
	f, err := NewFrame(event, data)
	if err != nil {
		return err
	}
	return conn.WriteFrame(f)
}

func (ch *channel) read(ctx context.Context, gen uint64, conn Conn) {
	op := "receive " + ch.name
	for {
		f, err := conn.ReadFrame()
		if err != nil {
			if errors.Is(err, ErrMalformedFrame) {
				metrics.RecordRealtimeDecodeError(ch.name, "")
				ch.m.logger.Debug(ctx, "malformed frame dropped", logger.String("topic", ch.name), logger.Error(err))
				continue
			}
			if ch.fail(gen, apierr.Wrap(apierr.KindNetwork, op, err)) {
				metrics.RecordRealtimeDisconnect(ch.name)
				ch.m.logger.Warn(ctx, "topic disconnected", logger.String("topic", ch.name), logger.Error(err))
			}
			return
		}
		metrics.RecordRealtimeMessage(ch.name, f.Event)

		var raw any
		var decodeErr error
		if len(f.Data) > 0 {
			if err := json.Unmarshal(f.Data, &raw); err != nil {
				decodeErr = apierr.Wrap(apierr.KindUnexpectedResponse, op, err)
				metrics.RecordRealtimeDecodeError(ch.name, f.Event)
			}
		}

		ch.mu.Lock()
		if ch.gen != gen {
			ch.mu.Unlock()
			return
		}
		ch.seq++
		seq := ch.seq
		if decodeErr == nil {
			ch.cache[f.Event] = cached{seq: seq, raw: raw}
		}
		listeners := ch.snapshotLocked()
		ch.mu.Unlock()

		for _, l := range listeners {
			if l.event == f.Event {
				l.deliver(seq, raw, decodeErr)
			}
		}
	}
}

// fail closes the current attempt and notifies listeners, which stay
// registered. It reports false when gen is stale.
func (ch *channel) fail(gen uint64, err error) bool {
	ch.mu.Lock()
	if ch.gen != gen {
		ch.mu.Unlock()
		return false
	}
	ch.closeLocked()
	listeners := ch.snapshotLocked()
	ch.mu.Unlock()

	for _, l := range listeners {
		l.disconnected(err)
	}
	return true
}

func (ch *channel) keepAlive(ctx context.Context, conn Conn) {
	defer ch.m.wg.Done()
	ticker := time.NewTicker(ch.m.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				ch.m.logger.Debug(ctx, "ping failed", logger.String("topic", ch.name), logger.Error(err))
				_ = conn.Close()
				return
			}
		}
	}
}
