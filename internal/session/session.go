// Package session holds the client configuration and the signed-in identity.
// It is an explicit object passed to every component; all state is read
// through from durable storage on first access and written through on change.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/okian/labsync/internal/adapters/storage"
	"github.com/okian/labsync/internal/domain/apierr"
	"github.com/okian/labsync/internal/domain/model"
	"github.com/okian/labsync/pkg/logger"
)

// Persisted keys.
const (
	keyPrefix              = "labsync."
	keyServerURL           = keyPrefix + "serverURL"
	keyAPIKey              = keyPrefix + "apiKey"
	keyToken               = keyPrefix + "token"
	keyMember              = keyPrefix + "member"
	keySharingDefault      = keyPrefix + "sharingDefault"
	keySocketAutoSwitching = keyPrefix + "socketAutoSwitching"
	keyNotifyPrefix        = keyPrefix + "notify."
	keyResultsDismissed    = keyPrefix + "resultsDismissed."
)

// Settings is the configuration applied by Configure.
type Settings struct {
	ServerURL           string
	APIKey              string
	SharingDefault      bool
	SocketAutoSwitching bool
}

// Endpoint is what a request needs to reach and authenticate with the server.
type Endpoint struct {
	ServerURL string
	Token     string
	APIKey    string
}

type credentials struct {
	token  string
	member *model.Member
}

// Session is the process-wide configuration and identity holder.
type Session struct {
	store storage.Store

	writeMu sync.Mutex // single writer for settings and credentials
	loadMu  sync.Mutex

	settings atomic.Pointer[Settings]
	creds    atomic.Pointer[credentials]

	signInMu sync.Mutex

	hooksMu sync.RWMutex
	hooks   []func(Settings)

	logger logger.Logger
}

// New returns a session backed by store. Nothing is read until first access.
func New(store storage.Store, opts ...Option) *Session {
	s := &Session{
		store:  store,
		logger: logger.Get().Named("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configure replaces the active configuration, persists it and runs the
// OnConfigure hooks.
func (s *Session) Configure(ctx context.Context, in Settings) error {
	serverURL, err := NormalizeServerURL(in.ServerURL)
	if err != nil {
		return err
	}
	next := in
	next.ServerURL = serverURL
	next.APIKey = strings.TrimSpace(in.APIKey)

	s.writeMu.Lock()
	entries := map[string][]byte{
		keyServerURL:           []byte(next.ServerURL),
		keyAPIKey:              nil,
		keySharingDefault:      []byte(strconv.FormatBool(next.SharingDefault)),
		keySocketAutoSwitching: []byte(strconv.FormatBool(next.SocketAutoSwitching)),
	}
	if next.APIKey != "" {
		entries[keyAPIKey] = []byte(next.APIKey)
	}
	// a member without token or API key is not allowed to outlive the key
	var orphan bool
	if next.APIKey == "" {
		c, err := s.credentials(ctx)
		if err != nil {
			s.writeMu.Unlock()
			return err
		}
		if orphan = c.token == "" && c.member != nil; orphan {
			entries[keyMember] = nil
		}
	}
	if err := s.store.Put(ctx, entries); err != nil {
		s.writeMu.Unlock()
		return fmt.Errorf("persist configuration: %w", err)
	}
	s.settings.Store(&next)
	if orphan {
		s.creds.Store(&credentials{})
	}
	s.writeMu.Unlock()

	s.logger.Info(ctx, "session configured",
		logger.String("server", next.ServerURL),
		logger.Bool("api_key", next.APIKey != ""),
	)

	s.runHooks(next)
	return nil
}

func (s *Session) runHooks(cfg Settings) {
	s.hooksMu.RLock()
	hooks := append([]func(Settings){}, s.hooks...)
	s.hooksMu.RUnlock()
	for _, h := range hooks {
		h(cfg)
	}
}

// OnConfigure registers fn to run after every successful Configure and
// every settings update.
func (s *Session) OnConfigure(fn func(Settings)) {
	s.hooksMu.Lock()
	s.hooks = append(s.hooks, fn)
	s.hooksMu.Unlock()
}

// Settings returns the active configuration. It fails with a not-configured
// error when Configure was never called and nothing is persisted.
func (s *Session) Settings(ctx context.Context) (Settings, error) {
	if cur := s.settings.Load(); cur != nil {
		return *cur, nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if cur := s.settings.Load(); cur != nil {
		return *cur, nil
	}

	serverURL, ok, err := s.getString(ctx, keyServerURL)
	if err != nil {
		return Settings{}, err
	}
	if !ok || serverURL == "" {
		return Settings{}, apierr.New(apierr.KindNotConfigured, "session")
	}
	loaded := Settings{ServerURL: serverURL}
	if loaded.APIKey, _, err = s.getString(ctx, keyAPIKey); err != nil {
		return Settings{}, err
	}
	if loaded.SharingDefault, err = s.getBool(ctx, keySharingDefault); err != nil {
		return Settings{}, err
	}
	if loaded.SocketAutoSwitching, err = s.getBool(ctx, keySocketAutoSwitching); err != nil {
		return Settings{}, err
	}
	s.settings.CompareAndSwap(nil, &loaded)
	return *s.settings.Load(), nil
}

// Endpoint returns the server URL and whichever credential is present.
func (s *Session) Endpoint(ctx context.Context) (Endpoint, error) {
	cfg, err := s.Settings(ctx)
	if err != nil {
		return Endpoint{}, err
	}
	c, err := s.credentials(ctx)
	if err != nil {
		return Endpoint{}, err
	}
	return Endpoint{ServerURL: cfg.ServerURL, Token: c.token, APIKey: cfg.APIKey}, nil
}

// Token returns the auth token, or "" when signed out.
func (s *Session) Token(ctx context.Context) (string, error) {
	c, err := s.credentials(ctx)
	if err != nil {
		return "", err
	}
	return c.token, nil
}

// CurrentMember returns the signed-in member, or nil.
func (s *Session) CurrentMember(ctx context.Context) (*model.Member, error) {
	c, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}
	return c.member, nil
}

// Credentials returns token and member from one consistent snapshot.
func (s *Session) Credentials(ctx context.Context) (string, *model.Member, error) {
	c, err := s.credentials(ctx)
	if err != nil {
		return "", nil, err
	}
	return c.token, c.member, nil
}

// SignedIn reports whether a member is signed in.
func (s *Session) SignedIn(ctx context.Context) bool {
	m, err := s.CurrentMember(ctx)
	return err == nil && m != nil
}

// SetToken replaces the token and keeps the member. Clearing the token also
// clears the member unless an API key is configured.
func (s *Session) SetToken(ctx context.Context, token string) error {
	c, err := s.credentials(ctx)
	if err != nil {
		return err
	}
	member := c.member
	if token == "" && !s.hasAPIKey(ctx) {
		member = nil
	}
	return s.publish(ctx, token, member)
}

// SetCurrentMember replaces the member and keeps the token. A member can only
// be set while a token or an API key is present.
func (s *Session) SetCurrentMember(ctx context.Context, m *model.Member) error {
	c, err := s.credentials(ctx)
	if err != nil {
		return err
	}
	if m != nil && c.token == "" && !s.hasAPIKey(ctx) {
		return ErrNoCredentials
	}
	return s.publish(ctx, c.token, m)
}

// SetCredentials replaces token and member together.
func (s *Session) SetCredentials(ctx context.Context, token string, m *model.Member) error {
	if m != nil && token == "" && !s.hasAPIKey(ctx) {
		return ErrNoCredentials
	}
	return s.publish(ctx, token, m)
}

// SignOut clears token and member together.
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.publish(ctx, "", nil); err != nil {
		return err
	}
	s.logger.Info(ctx, "signed out")
	return nil
}

// SerializeSignIn runs fn while no other sign-in is in progress.
func (s *Session) SerializeSignIn(fn func() error) error {
	s.signInMu.Lock()
	defer s.signInMu.Unlock()
	return fn()
}

// publish persists both keys in one write, then swaps the in-memory pair.
func (s *Session) publish(ctx context.Context, token string, m *model.Member) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	entries := map[string][]byte{keyToken: nil, keyMember: nil}
	if token != "" {
		entries[keyToken] = []byte(token)
	}
	if m != nil {
		data, err := json.Marshal(m.Payload())
		if err != nil {
			return fmt.Errorf("encode member: %w", err)
		}
		entries[keyMember] = data
	}
	if err := s.store.Put(ctx, entries); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}

	next := &credentials{token: token}
	if m != nil {
		cp := *m
		next.member = &cp
	}
	s.creds.Store(next)
	return nil
}

func (s *Session) credentials(ctx context.Context) (*credentials, error) {
	if c := s.creds.Load(); c != nil {
		return c, nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if c := s.creds.Load(); c != nil {
		return c, nil
	}

	token, _, err := s.getString(ctx, keyToken)
	if err != nil {
		return nil, err
	}
	loaded := &credentials{token: token}
	raw, ok, err := s.store.Get(ctx, keyMember)
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}
	if ok {
		var p model.Payload
		if err := json.Unmarshal(raw, &p); err == nil {
			if m, ok := model.DecodeMember(p); ok {
				loaded.member = &m
			}
		}
		if loaded.member == nil {
			s.logger.Warn(ctx, "discarding unreadable persisted member")
		}
	}
	s.creds.CompareAndSwap(nil, loaded)
	return s.creds.Load(), nil
}

func (s *Session) hasAPIKey(ctx context.Context) bool {
	cfg, err := s.Settings(ctx)
	return err == nil && cfg.APIKey != ""
}

func (s *Session) getString(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("load %s: %w", key, err)
	}
	return string(raw), ok, nil
}

func (s *Session) getBool(ctx context.Context, key string) (bool, error) {
	raw, ok, err := s.getString(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	b, perr := strconv.ParseBool(raw)
	if perr != nil {
		return false, nil
	}
	return b, nil
}

// NormalizeServerURL validates raw as an http(s) URL and strips trailing slashes.
func NormalizeServerURL(raw string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidServerURL)
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidServerURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidServerURL, raw)
	}
	return trimmed, nil
}
