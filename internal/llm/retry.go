// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

// RetryConfig holds retry configuration for LLM requests.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per call, including the first.
	MaxAttempts int

	// BackoffBase is the initial backoff duration.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to backoff on each retry.
	BackoffMultiplier float64

	// MaxBackoff caps the maximum backoff duration.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the retry defaults for LLM requests.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}

// RetryConfigFrom converts the file settings, filling unset fields from
// DefaultRetryConfig.
func RetryConfigFrom(c types.RetryConfig) RetryConfig {
	rc := DefaultRetryConfig()
	if c.MaxAttempts > 0 {
		rc.MaxAttempts = c.MaxAttempts
	}
	if c.BackoffBase > 0 {
		rc.BackoffBase = c.BackoffBase
	}
	if c.MaxBackoff > 0 {
		rc.MaxBackoff = c.MaxBackoff
	}
	return rc
}

// RateLimitRetries is the HTTP-level 429/503 retry count to pair with
// WithRetry(cfg). Under several call-level attempts the HTTP layer retries
// once, honoring Retry-After, so one call sends at most 2*MaxAttempts
// requests. A single call-level attempt keeps the HTTP default.
func (c RetryConfig) RateLimitRetries() int {
	if c.MaxAttempts > 1 {
		return 1
	}
	return 0
}

// sleep waits for d or until ctx is done. Tests replace it.
var sleep = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

type retryClient struct {
	Client
	cfg    RetryConfig
	logger *slog.Logger
}

// WithRetry retries transient errors with exponential backoff and jitter.
// Fatal and unclassified errors are returned at once.
func WithRetry(c Client, cfg RetryConfig, logger *slog.Logger) Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &retryClient{Client: c, cfg: cfg, logger: logger}
}

func (r *retryClient) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	return r.do(ctx, func() (string, error) { return r.Client.Generate(ctx, prompt, opts...) })
}

func (r *retryClient) Chat(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	return r.do(ctx, func() (string, error) { return r.Client.Chat(ctx, messages, opts...) })
}

func (r *retryClient) do(ctx context.Context, call func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		out, err := call()
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !IsTransient(err) || attempt == r.cfg.MaxAttempts {
			break
		}

		backoff := r.backoff(attempt)
		r.logger.Warn("LLM request failed, retrying",
			"provider", r.Name(),
			"attempt", attempt,
			"max_attempts", r.cfg.MaxAttempts,
			"backoff", backoff,
			"error", err)

		if err := sleep(ctx, backoff); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

// backoff computes exponential backoff duration with +/-25% jitter.
func (r *retryClient) backoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= r.cfg.BackoffMultiplier
	}

	backoff := time.Duration(float64(r.cfg.BackoffBase) * multiplier)
	if r.cfg.MaxBackoff > 0 && backoff > r.cfg.MaxBackoff {
		backoff = r.cfg.MaxBackoff
	}

	jitter := float64(backoff) * 0.25 * (rand.Float64()*2 - 1)
	return backoff + time.Duration(jitter)
}
