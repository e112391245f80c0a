package service

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/okian/labsync/internal/adapters/realtime"
	"github.com/okian/labsync/internal/domain/apierr"
	"github.com/okian/labsync/pkg/logger"
)

// Notice summarizes one realtime delivery.
type Notice struct {
	Topic        string
	Items        int
	Err          error
	Disconnected bool
	Received     time.Time
}

type follower func(m *realtime.Manager, fn func(Notice), restart func(*atomic.Pointer[realtime.Handle], error)) (*realtime.Handle, error)

var followers = map[string]follower{
	"events":    followList(realtime.Events),
	"voting":    followList(realtime.VotingEvents),
	"location":  followList(realtime.SharedLocations),
	"lights":    followList(realtime.Lights),
	"food":      followList(realtime.Food),
	"equipment": followList(realtime.Equipment),
}

// Topics lists the names accepted by Follow.
func Topics() []string {
	names := make([]string, 0, len(followers))
	for name := range followers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func followList[T any](sub func() realtime.Subscription[[]T]) follower {
	return func(m *realtime.Manager, fn func(Notice), restart func(*atomic.Pointer[realtime.Handle], error)) (*realtime.Handle, error) {
		s := sub()
		var self atomic.Pointer[realtime.Handle]
		h, err := realtime.Observe(m, s, func(u realtime.Update[[]T]) {
			fn(Notice{
				Topic:        s.Topic.String(),
				Items:        len(u.Value),
				Err:          u.Err,
				Disconnected: u.Disconnected,
				Received:     time.Now(),
			})
			if u.Disconnected {
				restart(&self, u.Err)
			}
		}, realtime.Restartable())
		if err != nil {
			return nil, err
		}
		self.Store(h)
		return h, nil
	}
}

// Follow subscribes fn to the named list topic. A disconnected topic is
// restarted after the reconnect delay unless the failure is fatal.
func (s *Service) Follow(name string, fn func(Notice)) (*realtime.Handle, error) {
	s.mu.RLock()
	m, delay, log := s.realtime, s.reconnectDelay, s.logger
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	f, ok := followers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, name)
	}

	restart := func(h *atomic.Pointer[realtime.Handle], cause error) {
		if delay == 0 || apierr.IsFatal(cause) || apierr.KindOf(cause) == apierr.KindUnauthorized {
			return
		}
		time.AfterFunc(delay, func() {
			cur := h.Load()
			if cur == nil {
				return
			}
			if err := cur.Restart(); err != nil {
				log.Debug(context.Background(), "topic not restarted",
					logger.String("topic", name), logger.Error(err))
			}
		})
	}
	return f(m, fn, restart)
}
