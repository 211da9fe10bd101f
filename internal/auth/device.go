package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/marcin-skalski/actions-status/internal/github"
)

// Scope requested for the token: private repositories need "repo".
const Scope = "repo"

const (
	defaultPollInterval = 5 * time.Second
	slowDownStep        = 5 * time.Second
)

// Prompter shows the user code and waits for the user to go ahead.
// Returning false cancels the login.
type Prompter interface {
	Prompt(ctx context.Context, userCode, verificationURI string) (bool, error)
}

// Login runs the OAuth device flow. On success the new token is held and
// persisted. A cancelled prompt leaves the current token untouched.
func (s *Session) Login(ctx context.Context, prompter Prompter) error {
	if s.clientID == "" {
		return ErrCannotAuthenticate
	}

	code, err := s.api.RequestDeviceCode(ctx, s.clientID, Scope)
	if err != nil {
		return fmt.Errorf("request device code: %w", err)
	}
	s.logger.Debug("verification codes",
		"user_code", code.UserCode,
		"verification_uri", code.VerificationURI,
		"interval", code.Interval,
		"expires_in", code.ExpiresIn)

	s.logger.Warn("authentication - prompting user", "user_code", code.UserCode)
	proceed, err := prompter.Prompt(ctx, code.UserCode, code.VerificationURI)
	if err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	if !proceed {
		return ErrLoginCancelled
	}

	token, err := s.pollForToken(ctx, code)
	if err != nil {
		return err
	}

	if err := s.api.ValidateToken(ctx, token); err != nil {
		s.logger.Warn("authentication - invalid token", "err", err)
		s.setState(Invalid)
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return s.setToken(token)
}

// pollForToken waits interval before each poll, as the token endpoint
// asks, until a token arrives or the device code runs out.
func (s *Session) pollForToken(ctx context.Context, code *github.DeviceCode) (string, error) {
	interval := time.Duration(code.Interval) * time.Second
	if interval <= 0 {
		interval = defaultPollInterval
	}
	var deadline time.Time
	if code.ExpiresIn > 0 {
		deadline = s.clock.Now().Add(time.Duration(code.ExpiresIn) * time.Second)
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-s.clock.After(interval):
		}

		if !deadline.IsZero() && !s.clock.Now().Before(deadline) {
			s.logger.Warn("authentication - device code expired locally")
			return "", ErrDeviceCodeExpired
		}

		s.logger.Debug("polling for user action")
		resp, err := s.api.PollAccessToken(ctx, s.clientID, code.DeviceCode)
		if err != nil {
			return "", fmt.Errorf("poll access token: %w", err)
		}

		switch {
		case resp.AccessToken != "":
			s.logger.Debug("access token acquired")
			return resp.AccessToken, nil
		case resp.Error == github.ErrorAuthorizationPending:
		case resp.Error == github.ErrorSlowDown:
			if next := time.Duration(resp.Interval) * time.Second; next > interval {
				interval = next
			} else {
				interval += slowDownStep
			}
			s.logger.Debug("slowing down device flow polling", "interval", interval)
		case resp.Error == github.ErrorExpiredToken:
			s.logger.Warn("authentication - user token expired")
			return "", ErrDeviceCodeExpired
		case resp.Error == github.ErrorAccessDenied:
			return "", ErrAccessDenied
		default:
			return "", fmt.Errorf("auth: device flow: %s: %s", resp.Error, resp.ErrorDescription)
		}
	}
}
