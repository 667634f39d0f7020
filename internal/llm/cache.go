// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
)

// Cache stores provider responses by request key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, provider, model, response string) error
}

// CacheOption configures WithCache.
type CacheOption func(*cachedClient)

// OnCacheHit registers a callback run for every response served from the cache.
func OnCacheHit(fn func()) CacheOption {
	return func(c *cachedClient) { c.onHit = fn }
}

// CacheLogger sets the logger for cache failures.
func CacheLogger(l *slog.Logger) CacheOption {
	return func(c *cachedClient) { c.logger = l }
}

type cachedClient struct {
	Client
	cache  Cache
	onHit  func()
	logger *slog.Logger
}

// WithCache serves repeated requests from cache. Cache read and write
// failures are logged and never fail the call.
func WithCache(c Client, cache Cache, opts ...CacheOption) Client {
	cc := &cachedClient{Client: c, cache: cache, logger: slog.Default()}
	for _, opt := range opts {
		opt(cc)
	}
	return cc
}

func (c *cachedClient) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	key := CacheKey(c.Name(), c.Model(), "generate", c.Settings().Apply(opts), prompt)
	return c.lookup(ctx, key, func() (string, error) { return c.Client.Generate(ctx, prompt, opts...) })
}

func (c *cachedClient) Chat(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	key := CacheKey(c.Name(), c.Model(), "chat", c.Settings().Apply(opts), messages)
	return c.lookup(ctx, key, func() (string, error) { return c.Client.Chat(ctx, messages, opts...) })
}

func (c *cachedClient) lookup(ctx context.Context, key string, call func() (string, error)) (string, error) {
	cached, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("LLM cache read failed", "error", err)
	}
	if ok {
		c.logger.Debug("LLM cache hit", "provider", c.Name(), "key", key[:12])
		if c.onHit != nil {
			c.onHit()
		}
		return cached, nil
	}

	out, err := call()
	if err != nil {
		return "", err
	}
	if err := c.cache.Put(ctx, key, c.Name(), c.Model(), out); err != nil {
		c.logger.Warn("LLM cache write failed", "error", err)
	}
	return out, nil
}

// CacheKey is the hex SHA-256 of the provider, model, call kind, effective
// settings, and payload. Equal requests produce equal keys.
func CacheKey(provider, model, kind string, effective Settings, payload any) string {
	doc := struct {
		Provider string   `json:"provider"`
		Model    string   `json:"model"`
		Kind     string   `json:"kind"`
		Settings Settings `json:"settings"`
		Payload  any      `json:"payload"`
	}{provider, model, kind, effective, payload}

	// Every field is a string, number, or message slice, so encoding cannot fail.
	data, _ := json.Marshal(doc)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
