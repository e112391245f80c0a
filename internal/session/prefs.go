package session

import (
	"context"
	"fmt"
	"strconv"
)

// NotificationsEnabled reports whether notifications are on for the entity id.
func (s *Session) NotificationsEnabled(ctx context.Context, id string) (bool, error) {
	return s.getBool(ctx, keyNotifyPrefix+id)
}

// SetNotificationsEnabled stores the notification preference for id.
func (s *Session) SetNotificationsEnabled(ctx context.Context, id string, enabled bool) error {
	return s.putBool(ctx, keyNotifyPrefix+id, enabled)
}

// ResultsDismissed reports whether the results of voting event id were dismissed.
func (s *Session) ResultsDismissed(ctx context.Context, id string) (bool, error) {
	return s.getBool(ctx, keyResultsDismissed+id)
}

// SetResultsDismissed stores the dismissed flag for voting event id.
func (s *Session) SetResultsDismissed(ctx context.Context, id string, dismissed bool) error {
	return s.putBool(ctx, keyResultsDismissed+id, dismissed)
}

// SetSharingDefault updates whether location is shared by default.
func (s *Session) SetSharingDefault(ctx context.Context, enabled bool) error {
	return s.updateSettings(ctx, keySharingDefault, enabled, func(cfg *Settings) { cfg.SharingDefault = enabled })
}

// SetSocketAutoSwitching updates whether realtime connections pause in background.
func (s *Session) SetSocketAutoSwitching(ctx context.Context, enabled bool) error {
	return s.updateSettings(ctx, keySocketAutoSwitching, enabled, func(cfg *Settings) { cfg.SocketAutoSwitching = enabled })
}

func (s *Session) updateSettings(ctx context.Context, key string, v bool, apply func(*Settings)) error {
	cur, err := s.Settings(ctx)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	if err := s.store.Put(ctx, map[string][]byte{key: []byte(strconv.FormatBool(v))}); err != nil {
		s.writeMu.Unlock()
		return fmt.Errorf("persist %s: %w", key, err)
	}
	if latest := s.settings.Load(); latest != nil {
		cur = *latest
	}
	apply(&cur)
	s.settings.Store(&cur)
	s.writeMu.Unlock()

	s.runHooks(cur)
	return nil
}

func (s *Session) putBool(ctx context.Context, key string, v bool) error {
	if err := s.store.Put(ctx, map[string][]byte{key: []byte(strconv.FormatBool(v))}); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}
