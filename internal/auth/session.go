// Package auth holds the OAuth token used for GitHub API calls and runs
// the device-flow login that obtains it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/marcin-skalski/actions-status/internal/clock"
	"github.com/marcin-skalski/actions-status/internal/github"
	"github.com/marcin-skalski/actions-status/internal/notify"
)

var (
	ErrCannotAuthenticate = errors.New("auth: no OAuth client id configured")
	ErrLoginCancelled     = errors.New("auth: login cancelled")
	ErrDeviceCodeExpired  = errors.New("auth: device code expired")
	ErrAccessDenied       = errors.New("auth: access denied by user")
	ErrTokenInvalid       = errors.New("auth: token rejected by GitHub")
)

type State int

const (
	// CannotAuthenticate means no client id is configured; login is
	// impossible. A stored token is still used if present.
	CannotAuthenticate State = iota
	Unauthenticated
	Authenticated
	Invalid
	Expired
)

func (s State) String() string {
	switch s {
	case CannotAuthenticate:
		return "cannot authenticate"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case Invalid:
		return "invalid"
	case Expired:
		return "expired"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Label is the state as shown to the user.
func (s State) Label() string {
	switch s {
	case Authenticated:
		return "✅ Authenticated"
	case Unauthenticated:
		return "❓ Authenticate"
	case Invalid:
		return "❌ Invalid"
	case Expired:
		return "❌ Expired"
	}
	return "❌ Cannot authenticate"
}

// API is the part of the GitHub client the session needs.
type API interface {
	RequestDeviceCode(ctx context.Context, clientID, scope string) (*github.DeviceCode, error)
	PollAccessToken(ctx context.Context, clientID, deviceCode string) (*github.AccessTokenResponse, error)
	ValidateToken(ctx context.Context, token string) error
}

type Config struct {
	ClientID string
	API      API
	Store    TokenStore
	Clock    clock.Clock
	Logger   *slog.Logger
	Notifier notify.Notifier
}

// Session owns the token. Every API call reads it through Token; any
// caller that sees a 401 calls Expire.
type Session struct {
	clientID string
	api      API
	store    TokenStore
	clock    clock.Clock
	logger   *slog.Logger
	notifier notify.Notifier

	mu    sync.RWMutex
	token string
	state State
	// expired is the last token dropped by Expire, so Reload does not
	// pick the same dead token back up from the store.
	expired string
}

// NewSession loads any stored token. A missing token file is normal.
func NewSession(cfg Config) *Session {
	s := &Session{
		clientID: cfg.ClientID,
		api:      cfg.API,
		store:    cfg.Store,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		notifier: cfg.Notifier,
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.notifier == nil {
		s.notifier = notify.Log{Logger: s.logger}
	}

	s.state = s.idleState()
	if token := s.load(); token != "" {
		s.logger.Info("loaded OAuth token")
		s.token = token
		s.state = Authenticated
	}
	return s
}

func (s *Session) idleState() State {
	if s.clientID == "" {
		return CannotAuthenticate
	}
	return Unauthenticated
}

func (s *Session) load() string {
	if s.store == nil {
		return ""
	}
	token, err := s.store.Load()
	if err != nil {
		s.logger.Warn("could not load OAuth token", "err", err)
		return ""
	}
	if token == "" {
		s.logger.Debug("OAuth token file not found")
		return ""
	}
	s.logger.Debug("loaded OAuth token")
	return token
}

// Token returns the current token, or "" when requests should go out
// unauthenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// CanLogin reports whether a client id is configured.
func (s *Session) CanLogin() bool { return s.clientID != "" }

// Expire drops the current token after a 401. Concurrent and repeated
// calls are safe; only the call that actually drops a token notifies.
func (s *Session) Expire() {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	s.expired = s.token
	s.token = ""
	s.state = Expired
	s.mu.Unlock()

	s.logger.Warn("token expired")
	s.notifier.Notify(notify.Notification{
		Kind:    notify.KindAuthExpired,
		Title:   "Authentication Expired",
		Message: "GitHub authentication expired - please re-authenticate.",
		Time:    s.clock.Now(),
	})
}

// Reload picks up a token written by another process, such as a login
// command run while the watcher is up. It does nothing while a token is
// held.
func (s *Session) Reload() {
	s.mu.RLock()
	held, expired := s.token, s.expired
	s.mu.RUnlock()
	if held != "" {
		return
	}

	token := s.load()
	if token == "" || token == expired {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		s.logger.Info("picked up new OAuth token")
		s.token = token
		s.state = Authenticated
	}
}

// Logout forgets the token in memory and on disk.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.expired = ""
	s.state = s.idleState()
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if err := s.store.Delete(); err != nil {
		return err
	}
	s.logger.Info("logged out")
	return nil
}

func (s *Session) setToken(token string) error {
	s.mu.Lock()
	s.token = token
	s.expired = ""
	s.state = Authenticated
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if err := s.store.Save(token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	s.logger.Info("wrote token to file")
	return nil
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
