// Package session guards the lifetime of the catalog bearer token.
//
// A token is acquired from the implicit-grant redirect fragment, persisted with an
// absolute expiry, restored on later runs, and dropped once the clock passes the expiry.
// An expired token is never handed out.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotunisia/internal/shared"
)

const (
	TokenKey  = "spotify_token"
	ExpiryKey = "spotify_token_expiry"

	// DefaultTTL applies when the redirect does not carry expires_in.
	DefaultTTL = 3600 * time.Second
)

// Store persists string values between runs.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Session is a bearer token and the instant it stops being valid.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Present reports whether the session holds a token that is still valid at now.
func (s Session) Present(now time.Time) bool {
	return s.Token != "" && now.Before(s.ExpiresAt)
}

// Grant is what the authorization redirect delivered.
type Grant struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
	State       string
}

// Guard owns the session and its persisted copy.
type Guard struct {
	mu      sync.Mutex
	store   Store
	now     func() time.Time
	logger  *log.Logger
	current Session
	err     error
}

// Option configures a [Guard].
type Option func(*Guard)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// WithLogger sets the guard's logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// NewGuard creates a Guard backed by store.
func NewGuard(store Store, opts ...Option) *Guard {
	g := &Guard{store: store, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = shared.NewLogger(nil)
	}
	return g
}

// Restore loads the persisted session. An expired or partial record is cleared and reported absent.
func (g *Guard) Restore(ctx context.Context) (Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.restore(ctx)
}

func (g *Guard) restore(ctx context.Context) (Session, error) {
	g.err = nil
	token, hasToken, err := g.store.Get(ctx, TokenKey)
	if err != nil {
		return g.fail(fmt.Errorf("restore token: %w", err))
	}
	rawExpiry, hasExpiry, err := g.store.Get(ctx, ExpiryKey)
	if err != nil {
		return g.fail(fmt.Errorf("restore expiry: %w", err))
	}

	if !hasToken && !hasExpiry {
		g.current = Session{}
		return Session{}, nil
	}

	ms, parseErr := strconv.ParseInt(rawExpiry, 10, 64)
	s := Session{Token: token, ExpiresAt: time.UnixMilli(ms)}
	if !hasToken || !hasExpiry || parseErr != nil || !s.Present(g.now()) {
		g.logger.Debug("discarding stale session", "has_token", hasToken, "has_expiry", hasExpiry)
		if err := g.store.Delete(ctx, TokenKey, ExpiryKey); err != nil {
			return g.fail(fmt.Errorf("clear stale session: %w", err))
		}
		g.current = Session{}
		return Session{}, nil
	}

	g.current = s
	g.err = nil
	return s, nil
}

// CaptureFromRedirect extracts access_token from a redirect fragment such as
// "#access_token=...&token_type=Bearer&expires_in=3600".
//
// A missing token yields ok=false. A malformed fragment also yields ok=false and sets the error flag.
func (g *Guard) CaptureFromRedirect(fragment string) (string, bool) {
	grant, ok := g.CaptureGrant(fragment)
	return grant.AccessToken, ok
}

// CaptureGrant is [Guard.CaptureFromRedirect] returning every recognised field.
func (g *Guard) CaptureGrant(fragment string) (Grant, bool) {
	grant, err := ParseFragment(fragment)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.err = fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		g.logger.Warn("could not parse redirect fragment", "error", err)
		return Grant{}, false
	}
	return grant, grant.AccessToken != ""
}

// ParseFragment splits a redirect fragment on "&" and each pair on its first "=", URL-decoding values.
func ParseFragment(fragment string) (Grant, error) {
	fragment = strings.TrimPrefix(strings.TrimSpace(fragment), "#")

	var grant Grant
	if fragment == "" {
		return grant, nil
	}

	for pair := range strings.SplitSeq(fragment, "&") {
		if pair == "" {
			continue
		}
		key, raw, _ := strings.Cut(pair, "=")
		value, err := url.PathUnescape(raw)
		if err != nil {
			return Grant{}, fmt.Errorf("decode %q: %w", key, err)
		}

		switch key {
		case "access_token":
			grant.AccessToken = value
		case "token_type":
			grant.TokenType = value
		case "state":
			grant.State = value
		case "expires_in":
			if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
				grant.ExpiresIn = time.Duration(secs) * time.Second
			}
		case "error":
			return Grant{}, fmt.Errorf("authorization denied: %s", value)
		}
	}
	return grant, nil
}

// Persist stores token with an expiry of now+ttl. A non-positive ttl means [DefaultTTL].
func (g *Guard) Persist(ctx context.Context, token string, ttl time.Duration) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidInput)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	s := Session{Token: token, ExpiresAt: g.now().Add(ttl)}
	if err := g.store.Set(ctx, TokenKey, s.Token); err != nil {
		_, err = g.fail(fmt.Errorf("persist token: %w", err))
		return err
	}
	if err := g.store.Set(ctx, ExpiryKey, strconv.FormatInt(s.ExpiresAt.UnixMilli(), 10)); err != nil {
		_, err = g.fail(fmt.Errorf("persist expiry: %w", err))
		return err
	}

	g.current = s
	g.err = nil
	return nil
}

// Invalidate clears the persisted and in-memory session.
func (g *Guard) Invalidate(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.current = Session{}
	if err := g.store.Delete(ctx, TokenKey, ExpiryKey); err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	return nil
}

// Boot runs the startup order: restore first, then capture from fragment, then persist.
//
// scrub is true when the fragment carried a token and should be removed from wherever it came from.
func (g *Guard) Boot(ctx context.Context, fragment string) (s Session, scrub bool, err error) {
	g.mu.Lock()
	s, err = g.restore(ctx)
	g.mu.Unlock()
	if err != nil {
		return Session{}, false, err
	}
	if s.Token != "" {
		return s, false, nil
	}

	grant, ok := g.CaptureGrant(fragment)
	if !ok {
		return Session{}, false, g.Err()
	}

	if err := g.Persist(ctx, grant.AccessToken, grant.ExpiresIn); err != nil {
		return Session{}, false, err
	}
	return g.Current(), true, nil
}

// Token returns the current bearer token. A token past its expiry is invalidated and not returned.
func (g *Guard) Token(ctx context.Context) (string, bool) {
	g.mu.Lock()
	s := g.current
	expired := s.Token != "" && !s.Present(g.now())
	g.mu.Unlock()

	if expired {
		g.logger.Info("session expired", "expired_at", s.ExpiresAt)
		if err := g.Invalidate(ctx); err != nil {
			g.logger.Warn("failed to clear expired session", "error", err)
		}
		return "", false
	}
	return s.Token, s.Token != ""
}

// Current returns the in-memory session without checking the clock.
func (g *Guard) Current() Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Err returns the last acquisition or storage failure, distinct from an absent token.
func (g *Guard) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// Failed reports whether [Guard.Err] is set.
func (g *Guard) Failed() bool {
	return g.Err() != nil
}

// Require returns the token or [shared.ErrNotAuthenticated].
func (g *Guard) Require(ctx context.Context) (string, error) {
	token, ok := g.Token(ctx)
	if !ok {
		return "", shared.ErrNotAuthenticated
	}
	return token, nil
}

func (g *Guard) fail(err error) (Session, error) {
	g.err = err
	g.logger.Error("session storage failure", "error", err)
	return Session{}, err
}

// IsAuthError reports whether err means the caller must log in again.
func IsAuthError(err error) bool {
	return errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrTokenExpired)
}
