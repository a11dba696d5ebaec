package tekmetric

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/desertthunder/tekx/internal/shared"
	tu "github.com/desertthunder/tekx/internal/testing"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

func TestTokenCaches(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	caches := map[string]TokenCache{
		"Memory": NewMemoryTokenCache(),
		"Redis":  NewRedisTokenCache(rdb, "test:"),
	}

	for name, cache := range caches {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := cache.Get(ctx); err != nil || ok {
				t.Fatalf("expected empty cache, got ok=%v err=%v", ok, err)
			}

			expiry := time.Now().Add(time.Hour).Truncate(time.Second)
			if err := cache.Set(ctx, &oauth2.Token{AccessToken: "abc", TokenType: "bearer", Expiry: expiry}); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			tok, ok, err := cache.Get(ctx)
			if err != nil || !ok {
				t.Fatalf("expected cached token, got ok=%v err=%v", ok, err)
			}
			if tok.AccessToken != "abc" || !tok.Expiry.Equal(expiry) {
				t.Errorf("unexpected token %+v", tok)
			}

			if err := cache.Clear(ctx); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			if _, ok, _ := cache.Get(ctx); ok {
				t.Error("expected cache to be empty after Clear")
			}
		})
	}

	t.Run("Redis Key Expires With Token", func(t *testing.T) {
		cache := NewRedisTokenCache(rdb, "ttl:")
		if err := cache.Set(ctx, &oauth2.Token{AccessToken: "abc", Expiry: time.Now().Add(time.Minute)}); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if ttl := mr.TTL(cache.Key()); ttl <= 0 || ttl > time.Minute {
			t.Errorf("expected key ttl within a minute, got %v", ttl)
		}

		mr.FastForward(2 * time.Minute)
		if _, ok, _ := cache.Get(ctx); ok {
			t.Error("expected token to expire with its key")
		}
	})

	t.Run("Redis Ignores Corrupt Entry", func(t *testing.T) {
		cache := NewRedisTokenCache(rdb, "corrupt:")
		mr.Set(cache.Key(), "not json")
		if _, ok, err := cache.Get(ctx); ok || err != nil {
			t.Errorf("expected miss without error, got ok=%v err=%v", ok, err)
		}
	})
}

// brokenCache misses on every read and rejects every write.
type brokenCache struct{ sets int }

func (b *brokenCache) Get(context.Context) (*oauth2.Token, bool, error) { return nil, false, nil }
func (b *brokenCache) Clear(context.Context) error                      { return nil }
func (b *brokenCache) Set(context.Context, *oauth2.Token) error {
	b.sets++
	return errors.New("redis: connection refused")
}

func TestTokenSource(t *testing.T) {
	ctx := context.Background()

	t.Run("Caches Token Until Margin", func(t *testing.T) {
		fake := tu.NewFakeTekmetric(t)
		now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		var refreshes int
		ts := NewTokenSource(fake.URL(), tu.FakeClientID, tu.FakeClientSecret, nil,
			WithTokenTTL(10*time.Minute),
			WithClock(func() time.Time { return now }),
			WithRefreshHook(func(error) { refreshes++ }),
		)

		first, err := ts.Token(ctx)
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if first.AccessToken != "tok-1" {
			t.Errorf("expected tok-1, got %s", first.AccessToken)
		}
		if !first.Expiry.Equal(now.Add(10 * time.Minute)) {
			t.Errorf("expected ttl applied to expiry-less token, got %v", first.Expiry)
		}

		now = now.Add(8 * time.Minute)
		second, _ := ts.Token(ctx)
		if second.AccessToken != "tok-1" || fake.TokenRequests() != 1 {
			t.Errorf("expected cached token, got %s after %d exchanges", second.AccessToken, fake.TokenRequests())
		}

		now = now.Add(90 * time.Second)
		third, _ := ts.Token(ctx)
		if third.AccessToken != "tok-2" {
			t.Errorf("expected refresh inside the margin, got %s", third.AccessToken)
		}
		if refreshes != 2 {
			t.Errorf("expected 2 refresh hooks, got %d", refreshes)
		}
	})

	t.Run("Invalidate Forces Exchange", func(t *testing.T) {
		fake := tu.NewFakeTekmetric(t)
		ts := NewTokenSource(fake.URL(), tu.FakeClientID, tu.FakeClientSecret, NewMemoryTokenCache())

		ts.Token(ctx)
		if err := ts.Invalidate(ctx); err != nil {
			t.Fatalf("Invalidate() error = %v", err)
		}
		tok, _ := ts.Token(ctx)
		if tok.AccessToken != "tok-2" {
			t.Errorf("expected tok-2, got %s", tok.AccessToken)
		}
	})

	t.Run("Rejected Credentials", func(t *testing.T) {
		fake := tu.NewFakeTekmetric(t)
		var hookErr error
		ts := NewTokenSource(fake.URL(), "wrong", "creds", nil, WithRefreshHook(func(err error) { hookErr = err }))

		_, err := ts.Token(ctx)
		if !errors.Is(err, shared.ErrAuthFailed) || !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected ErrAuthFailed and ErrRefreshFailed, got %v", err)
		}
		if hookErr == nil {
			t.Error("expected refresh hook to see the failure")
		}
	})

	t.Run("Cache Write Failure Still Returns Token", func(t *testing.T) {
		fake := tu.NewFakeTekmetric(t)
		cache := &brokenCache{}
		ts := NewTokenSource(fake.URL(), tu.FakeClientID, tu.FakeClientSecret, cache)

		tok, err := ts.Token(ctx)
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if tok.AccessToken != "tok-1" || cache.sets != 1 {
			t.Errorf("expected tok-1 after one cache write, got %s (%d writes)", tok.AccessToken, cache.sets)
		}
	})

	t.Run("Redis TTL Follows Source Clock", func(t *testing.T) {
		fake := tu.NewFakeTekmetric(t)
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })

		// Far from the wall clock, so a TTL computed from time.Now would already be negative.
		now := time.Date(2020, 1, 6, 9, 0, 0, 0, time.UTC)
		cache := NewRedisTokenCache(rdb, "clock:")
		ts := NewTokenSource(fake.URL(), tu.FakeClientID, tu.FakeClientSecret, cache,
			WithTokenTTL(10*time.Minute),
			WithClock(func() time.Time { return now }),
		)

		if _, err := ts.Token(ctx); err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if ttl := mr.TTL(cache.Key()); ttl != 10*time.Minute {
			t.Errorf("expected key ttl of 10m, got %v", ttl)
		}

		tok, _ := ts.Token(ctx)
		if tok.AccessToken != "tok-1" || fake.TokenRequests() != 1 {
			t.Errorf("expected cached tok-1, got %s after %d exchanges", tok.AccessToken, fake.TokenRequests())
		}
	})

	t.Run("Missing Credentials", func(t *testing.T) {
		ts := NewTokenSource("http://127.0.0.1:0", "", "", nil)
		if _, err := ts.Token(ctx); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}
