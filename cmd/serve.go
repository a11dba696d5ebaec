package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/tekx/internal/server"
	"github.com/desertthunder/tekx/internal/shared"
	"github.com/desertthunder/tekx/internal/tekmetric"
	"github.com/urfave/cli/v3"
)

// tekmetricClient builds a Tekmetric client over the configured token cache.
func (r *Runner) tekmetricClient(ctx context.Context, driver string, opts ...tekmetric.TokenSourceOption) (*tekmetric.Client, func(), error) {
	cfg := r.config.Tekmetric
	if err := r.config.Validate(); err != nil {
		return nil, nil, err
	}

	cache, release, err := r.tokenCache(ctx, driver)
	if err != nil {
		return nil, nil, err
	}

	logger := shared.WithLogger(r.logger, "component", "tekmetric")
	opts = append([]tekmetric.TokenSourceOption{
		tekmetric.WithTokenTTL(cfg.TokenTTL.Duration),
		tekmetric.WithTokenLogger(logger),
	}, opts...)
	tokens := tekmetric.NewTokenSource(cfg.BaseURL, cfg.ClientID, cfg.ClientSecret, cache, opts...)

	client, err := tekmetric.NewClient(tekmetric.Config{
		BaseURL:   cfg.BaseURL,
		ShopID:    cfg.ShopID,
		RateLimit: cfg.RateLimit,
		Burst:     cfg.Burst,
		Timeout:   cfg.Timeout.Duration,
	}, tokens, tekmetric.WithLogger(logger))
	if err != nil {
		release()
		return nil, nil, err
	}
	return client, release, nil
}

// Serve runs the proxy until interrupted.
//
// Without credentials the proxy still starts so /health can report that it is unconfigured.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.reload(cmd); err != nil {
		return err
	}

	addr := r.config.Server
	if cmd.IsSet("host") {
		addr.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		addr.Port = int(cmd.Int("port"))
	}

	metrics := server.NewMetrics(nil)

	var upstream server.Upstream
	client, release, err := r.tekmetricClient(ctx, cmd.String("cache"), tekmetric.WithRefreshHook(metrics.ObserveTokenRefresh))
	switch {
	case err == nil:
		defer release()
		upstream = client
		r.logger.Info("tekmetric configured", "base_url", r.config.Tekmetric.BaseURL, "shop", r.config.Tekmetric.ShopID)
	case errors.Is(err, shared.ErrMissingCredentials):
		r.logger.Warn("starting without Tekmetric credentials", "error", err)
	default:
		return err
	}

	handler := server.NewProxyHandler(upstream, shared.WithLogger(r.logger, "component", "proxy"),
		r.config.Panel.Location(), r.config.Tekmetric.ShopID)

	srv := server.New(server.Options{
		Addr:           addr.Addr(),
		AllowedOrigins: addr.AllowedOrigins,
		Logger:         r.logger,
		Metrics:        metrics,
	}, handler)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return nil
}
