package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tekx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthToken drops any cached token and exchanges the client credentials for a new one.
//
// The new token lands in the configured cache, so a running proxy on the same redis picks it up.
func (r *Runner) AuthToken(ctx context.Context, cmd *cli.Command) error {
	if err := r.reload(cmd); err != nil {
		return err
	}

	client, release, err := r.tekmetricClient(ctx, "")
	if err != nil {
		return err
	}
	defer release()

	tokens := client.Tokens()
	if err := tokens.Invalidate(ctx); err != nil {
		r.logger.Warn("failed to clear cached token", "error", err)
	}

	r.logger.Info("exchanging client credentials", "base_url", r.config.Tekmetric.BaseURL)
	token, err := tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	r.writePlain("✓ Authenticated with %s\n", r.config.Tekmetric.BaseURL)
	r.writePlain("Token: %s\n", maskToken(token.AccessToken))
	if !token.Expiry.IsZero() {
		r.writePlain("Expires: %s\n", token.Expiry.Local().Format(time.RFC1123))
	}
	return nil
}

// AuthStatus checks whether the proxy is reachable and configured with credentials.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.reload(cmd); err != nil {
		return err
	}

	r.logger.Info("checking proxy health", "url", r.api.BaseURL())

	status, err := r.proxy.Health(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	switch status {
	case "ok":
		return r.writePlain("✓ Proxy is healthy at %s\nAuthenticated: yes\n", r.api.BaseURL())
	case "unconfigured":
		return r.writePlain("⚠ Proxy is running at %s without Tekmetric credentials\nAuthenticated: no\n", r.api.BaseURL())
	default:
		return r.writePlain("Proxy at %s reported status %q\n", r.api.BaseURL(), status)
	}
}
