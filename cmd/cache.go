package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/tekx/internal/panel"
	"github.com/desertthunder/tekx/internal/repositories"
	"github.com/desertthunder/tekx/internal/shared"
	"github.com/desertthunder/tekx/internal/tekmetric"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
)

// tokenCache builds the configured token cache. The returned func releases it.
func (r *Runner) tokenCache(ctx context.Context, driver string) (tekmetric.TokenCache, func(), error) {
	if driver == "" {
		driver = r.config.Cache.Driver
	}

	switch strings.ToLower(driver) {
	case "", "memory":
		return tekmetric.NewMemoryTokenCache(), func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     r.config.Cache.RedisAddr,
			Password: r.config.Cache.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("%w: redis at %s: %v", shared.ErrServiceUnavailable, r.config.Cache.RedisAddr, err)
		}
		r.logger.Debug("using redis token cache", "addr", r.config.Cache.RedisAddr)
		return tekmetric.NewRedisTokenCache(client, r.config.Cache.KeyPrefix), func() { client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: cache driver %q", shared.ErrInvalidConfig, driver)
	}
}

// CacheShow reports the cached token's expiry and the saved panel storage keys.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.reload(cmd); err != nil {
		return err
	}

	r.writePlainHeader("Token cache")
	r.writePlain("Driver: %s\n", r.config.Cache.Driver)

	cache, release, err := r.tokenCache(ctx, "")
	if err != nil {
		return err
	}
	defer release()

	token, ok, err := cache.Get(ctx)
	switch {
	case err != nil:
		return fmt.Errorf("failed to read token cache: %w", err)
	case !ok:
		r.writePlain("Token: none cached\n")
	default:
		r.writePlain("Token: %s\n", maskToken(token.AccessToken))
		if !token.Expiry.IsZero() {
			r.writePlain("Expires: %s (in %s)\n", token.Expiry.Local().Format(time.RFC1123),
				token.Expiry.Sub(r.now()).Round(time.Second))
		}
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	keys, err := repositories.NewStorageRepository(db).Keys()
	if err != nil {
		return fmt.Errorf("failed to list panel storage: %w", err)
	}

	r.writePlainln("Panel storage")
	if len(keys) == 0 {
		return r.writePlain("No saved session\n")
	}
	for _, k := range keys {
		r.writePlain("  %s\n", k)
	}
	return nil
}

// CacheClear removes the cached token and, with --panel, the saved panel session.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.reload(cmd); err != nil {
		return err
	}

	cache, release, err := r.tokenCache(ctx, "")
	if err != nil {
		return err
	}
	defer release()

	if err := cache.Clear(ctx); err != nil {
		return err
	}
	r.logger.Info("token cache cleared", "driver", r.config.Cache.Driver)
	r.writePlain("✓ Token cache cleared\n")

	if !cmd.Bool("panel") {
		return nil
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	storage := repositories.NewStorageRepository(db)
	for _, key := range []string{panel.StateKey, panel.OpenKey} {
		if err := storage.Delete(key); err != nil {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	return r.writePlain("✓ Panel session discarded\n")
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
