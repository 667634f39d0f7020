// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"net/http"
	"time"

	"github.com/pdiddy/pdf-summarizer/internal/httputil"
	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

// DefaultTimeout bounds a single provider HTTP request.
const DefaultTimeout = 180 * time.Second

type factoryConfig struct {
	doer       httputil.Doer
	timeout    time.Duration
	maxRetries int
}

// FactoryOption configures New.
type FactoryOption func(*factoryConfig)

// WithHTTPClient replaces the underlying HTTP client. Rate-limit retry is
// still layered on top.
func WithHTTPClient(d httputil.Doer) FactoryOption {
	return func(f *factoryConfig) { f.doer = d }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) FactoryOption {
	return func(f *factoryConfig) { f.timeout = d }
}

// WithRateLimitRetries sets how often a 429 or 503 is retried at the HTTP layer.
func WithRateLimitRetries(n int) FactoryOption {
	return func(f *factoryConfig) { f.maxRetries = n }
}

// New builds the client for provider. The name is matched
// case-insensitively.
func New(provider string, cfg types.ModelConfig, opts ...FactoryOption) (Client, error) {
	p, err := types.ParseProvider(provider)
	if err != nil {
		return nil, err
	}

	fc := factoryConfig{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&fc)
	}
	base := fc.doer
	if base == nil {
		base = &http.Client{Timeout: fc.timeout}
	}
	doer := &httputil.RetryingDoer{Client: base, MaxRetries: fc.maxRetries}

	switch p {
	case types.ProviderOllama:
		return NewOllamaClient(cfg, doer), nil
	default:
		c, err := NewGroqClient(cfg, doer)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
