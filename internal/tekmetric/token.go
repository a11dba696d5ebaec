package tekmetric

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tekx/internal/shared"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	tokenPath            = "/api/v1/oauth/token"
	defaultRefreshMargin = 60 * time.Second
	defaultTokenTTL      = 55 * time.Minute
)

// TokenCache stores a single bearer token with an explicit expiry.
type TokenCache interface {
	// Get returns the cached token, or false when nothing is cached.
	Get(ctx context.Context) (*oauth2.Token, bool, error)
	Set(ctx context.Context, token *oauth2.Token) error
	Clear(ctx context.Context) error
}

// MemoryTokenCache is a [TokenCache] held in process memory.
type MemoryTokenCache struct {
	mu    sync.Mutex
	token *oauth2.Token
}

// NewMemoryTokenCache creates an empty in-memory token cache.
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{}
}

func (m *MemoryTokenCache) Get(_ context.Context) (*oauth2.Token, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return nil, false, nil
	}
	tok := *m.token
	return &tok, true, nil
}

func (m *MemoryTokenCache) Set(_ context.Context, token *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok := *token
	m.token = &tok
	return nil
}

func (m *MemoryTokenCache) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	return nil
}

// RedisTokenCache is a [TokenCache] stored under a single redis key.
//
// The key expires together with the token so a stale value never outlives it.
type RedisTokenCache struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

type cachedToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Expiry      time.Time `json:"expiry"`
}

// NewRedisTokenCache creates a token cache under "<prefix>tekmetric:token".
func NewRedisTokenCache(client *redis.Client, prefix string) *RedisTokenCache {
	return &RedisTokenCache{client: client, key: prefix + "tekmetric:token", now: time.Now}
}

func (r *RedisTokenCache) setClock(now func() time.Time) { r.now = now }

// Key returns the redis key holding the token.
func (r *RedisTokenCache) Key() string { return r.key }

func (r *RedisTokenCache) Get(ctx context.Context) (*oauth2.Token, bool, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached token: %w", err)
	}

	var ct cachedToken
	if err := json.Unmarshal(raw, &ct); err != nil {
		// An unreadable entry is treated as a miss and overwritten on the next exchange.
		return nil, false, nil
	}
	return &oauth2.Token{AccessToken: ct.AccessToken, TokenType: ct.TokenType, Expiry: ct.Expiry}, true, nil
}

func (r *RedisTokenCache) Set(ctx context.Context, token *oauth2.Token) error {
	data, err := json.Marshal(cachedToken{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		Expiry:      token.Expiry,
	})
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	var ttl time.Duration
	if !token.Expiry.IsZero() {
		ttl = token.Expiry.Sub(r.now())
		if ttl <= 0 {
			return nil
		}
	}
	if err := r.client.Set(ctx, r.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache token: %w", err)
	}
	return nil
}

func (r *RedisTokenCache) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to clear cached token: %w", err)
	}
	return nil
}

// TokenSource exchanges client credentials for bearer tokens and caches them.
type TokenSource struct {
	config     clientcredentials.Config
	cache      TokenCache
	httpClient *http.Client
	ttl        time.Duration
	margin     time.Duration
	now        func() time.Time
	onRefresh  func(error)
	logger     *log.Logger

	mu sync.Mutex
}

// TokenSourceOption configures a [TokenSource].
type TokenSourceOption func(*TokenSource)

// WithTokenTTL sets the lifetime given to tokens that arrive without an expiry.
func WithTokenTTL(ttl time.Duration) TokenSourceOption {
	return func(ts *TokenSource) {
		if ttl > 0 {
			ts.ttl = ttl
		}
	}
}

// WithRefreshMargin sets how long before expiry a cached token is considered stale.
func WithRefreshMargin(margin time.Duration) TokenSourceOption {
	return func(ts *TokenSource) { ts.margin = margin }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TokenSourceOption {
	return func(ts *TokenSource) { ts.now = now }
}

// WithRefreshHook registers a callback invoked after every exchange attempt.
func WithRefreshHook(fn func(error)) TokenSourceOption {
	return func(ts *TokenSource) { ts.onRefresh = fn }
}

// WithTokenLogger sets the logger used for cache failures.
func WithTokenLogger(l *log.Logger) TokenSourceOption {
	return func(ts *TokenSource) { ts.logger = l }
}

// WithTokenHTTPClient sets the client used for the token exchange.
func WithTokenHTTPClient(client *http.Client) TokenSourceOption {
	return func(ts *TokenSource) { ts.httpClient = client }
}

// NewTokenSource creates a token source for the Tekmetric instance at baseURL.
func NewTokenSource(baseURL, clientID, clientSecret string, cache TokenCache, opts ...TokenSourceOption) *TokenSource {
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	ts := &TokenSource{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     strings.TrimSuffix(baseURL, "/") + tokenPath,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		cache:  cache,
		ttl:    defaultTokenTTL,
		margin: defaultRefreshMargin,
		now:    time.Now,
		logger: shared.NewLogger(io.Discard),
	}
	for _, opt := range opts {
		opt(ts)
	}
	// Caches that compute their own expiry follow the source's clock.
	if c, ok := cache.(interface{ setClock(func() time.Time) }); ok {
		c.setClock(ts.now)
	}
	return ts
}

// Token returns a cached token that is not within the refresh margin of its expiry, exchanging
// credentials for a new one otherwise.
func (ts *TokenSource) Token(ctx context.Context) (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if tok, ok, err := ts.cache.Get(ctx); err == nil && ok && ts.fresh(tok) {
		return tok, nil
	}
	return ts.exchange(ctx)
}

// Invalidate drops the cached token.
func (ts *TokenSource) Invalidate(ctx context.Context) error {
	return ts.cache.Clear(ctx)
}

func (ts *TokenSource) fresh(tok *oauth2.Token) bool {
	if tok.AccessToken == "" {
		return false
	}
	if tok.Expiry.IsZero() {
		return true
	}
	return ts.now().Add(ts.margin).Before(tok.Expiry)
}

func (ts *TokenSource) exchange(ctx context.Context) (*oauth2.Token, error) {
	if ts.config.ClientID == "" || ts.config.ClientSecret == "" {
		return nil, shared.ErrMissingCredentials
	}

	if ts.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, ts.httpClient)
	}

	tok, err := ts.config.Token(ctx)
	if ts.onRefresh != nil {
		ts.onRefresh(err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", shared.ErrAuthFailed, shared.ErrRefreshFailed, err)
	}

	if tok.Expiry.IsZero() {
		tok.Expiry = ts.now().Add(ts.ttl)
	}
	if err := ts.cache.Set(ctx, tok); err != nil {
		ts.logger.Warn("failed to cache token", "error", err)
	}
	return tok, nil
}
