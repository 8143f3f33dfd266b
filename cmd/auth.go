package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/spotunisia/internal/server"
	"github.com/desertthunder/spotunisia/internal/session"
	"github.com/desertthunder/spotunisia/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultLoginTimeout = 5 * time.Minute

// Login stores a new session.
//
// By default it serves the redirect target locally, opens the authorize page in the browser and
// waits for the fragment to be forwarded. With --redirect-url the fragment is taken from a URL the
// user copied from the address bar instead.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	existing, err := r.guard.Restore(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	if existing.Token != "" && !cmd.Bool("force") {
		return r.writePlain("✓ Already logged in (session expires %s)\nRun 'spotunisia logout' or pass --force to replace it.\n",
			existing.ExpiresAt.Format(time.Kitchen))
	}
	if existing.Token != "" {
		if err := r.guard.Invalidate(ctx); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
	}

	if raw := cmd.String("redirect-url"); raw != "" {
		return r.loginFromRedirect(ctx, raw)
	}
	return r.loginWithBrowser(ctx, cmd.Duration("timeout"))
}

// loginFromRedirect runs the boot sequence on a pasted redirect URL or bare fragment.
func (r *Runner) loginFromRedirect(ctx context.Context, raw string) error {
	s, _, err := r.guard.Boot(ctx, redirectFragment(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if s.Token == "" {
		return fmt.Errorf("%w: no access_token in %q", shared.ErrAuthFailed, raw)
	}
	return r.loginSucceeded(s)
}

// redirectFragment returns the still-escaped fragment of a redirect URL, or raw itself when it
// is not a URL with a fragment.
func redirectFragment(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Fragment != "" {
		return u.EscapedFragment()
	}
	return raw
}

func (r *Runner) loginWithBrowser(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultLoginTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	state := shared.GenerateState()
	handler := server.NewCaptureHandler(r.guard, state, r.logger)
	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.RequestLogger(r.logger))
	router.Handler(handler)

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	ready := make(chan string, 1)
	served := make(chan error, 1)
	go func() { served <- server.Listen(ctx, addr, router, ready) }()

	select {
	case <-ready:
	case err := <-served:
		return fmt.Errorf("failed to start redirect listener: %w", err)
	}

	authURL := r.catalog.ImplicitGrantURL(state)
	r.logger.Info("waiting for authorization", "addr", addr)
	r.writePlain("Opening your browser to authorize spotunisia...\n")
	r.writePlain("If it does not open, visit:\n\n  %s\n\n", authURL)
	if err := r.opener(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
	}

	var result server.CaptureResult
	select {
	case result = <-handler.Result():
	case <-ctx.Done():
		<-served
		return fmt.Errorf("%w: no redirect received within %s", shared.ErrTimeout, timeout)
	case err := <-served:
		return fmt.Errorf("redirect listener stopped: %w", err)
	}

	cancel()
	if err := <-served; err != nil {
		r.logger.Warn("redirect listener shutdown", "error", err)
	}
	if err := result.Error(); err != nil {
		return err
	}
	return r.loginSucceeded(result.Session)
}

func (r *Runner) loginSucceeded(s session.Session) error {
	r.logger.Info("session stored", "expires_at", s.ExpiresAt)
	r.writePlain("✓ Logged in (session expires %s)\n", s.ExpiresAt.Format(time.Kitchen))
	return r.writePlain("You can now use: spotunisia home\n")
}

// Logout clears the stored session.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}
	if err := r.guard.Invalidate(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}

type statusReport struct {
	Authenticated bool      `json:"authenticated"`
	ExpiresAt     time.Time `json:"expires_at,omitzero"`
	Remaining     string    `json:"remaining,omitempty"`
}

// Status reports whether a usable session is stored.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	s, err := r.guard.Restore(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	report := statusReport{Authenticated: s.Token != ""}
	if report.Authenticated {
		report.ExpiresAt = s.ExpiresAt
		report.Remaining = time.Until(s.ExpiresAt).Round(time.Second).String()
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}
	if !report.Authenticated {
		return r.writePlain("✗ Not logged in. Run 'spotunisia login'.\n")
	}
	return r.writePlain("✓ Logged in\nExpires: %s (in %s)\n", report.ExpiresAt.Format(time.RFC1123), report.Remaining)
}
