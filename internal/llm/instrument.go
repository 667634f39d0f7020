// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"time"

	"github.com/pdiddy/pdf-summarizer/internal/metrics"
)

type meteredClient struct {
	Client
	rec *metrics.Recorder
}

// WithMetrics counts requests by outcome and observes their latency.
func WithMetrics(c Client, rec *metrics.Recorder) Client {
	return &meteredClient{Client: c, rec: rec}
}

func (m *meteredClient) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	start := time.Now()
	out, err := m.Client.Generate(ctx, prompt, opts...)
	m.rec.ObserveRequest(m.Name(), outcome(err), time.Since(start))
	return out, err
}

func (m *meteredClient) Chat(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	start := time.Now()
	out, err := m.Client.Chat(ctx, messages, opts...)
	m.rec.ObserveRequest(m.Name(), outcome(err), time.Since(start))
	return out, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	case IsTransient(err):
		return metrics.OutcomeTransient
	default:
		return metrics.OutcomeFatal
	}
}
