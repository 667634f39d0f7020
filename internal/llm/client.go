// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm talks to the language model providers used for summarization.
// Each provider implements Client; decorators add retry, caching, and
// metrics without the providers knowing about them.
package llm

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client generates text with one provider and model.
type Client interface {
	// Name returns the provider name, e.g. "groq".
	Name() string

	// Model returns the model identifier requests are sent to.
	Model() string

	// Generate completes a single prompt.
	Generate(ctx context.Context, prompt string, opts ...Option) (string, error)

	// Chat completes a conversation and returns the assistant reply.
	Chat(ctx context.Context, messages []Message, opts ...Option) (string, error)

	// Validate checks that the provider is reachable and the credentials work.
	Validate(ctx context.Context) error

	// Settings returns the endpoint and the defaults applied to calls that
	// set no options.
	Settings() Settings
}

// Settings are the client-level values that shape every request.
type Settings struct {
	BaseURL     string  `json:"base_url"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Apply returns s with the per-call options in opts taking precedence.
func (s Settings) Apply(opts []Option) Settings {
	s.Temperature, s.MaxTokens = resolve(opts, s.Temperature, s.MaxTokens)
	return s
}

// CallOptions are per-call overrides. Zero values mean "use the client default".
type CallOptions struct {
	// Temperature is nil when unset so that an explicit 0 is distinguishable.
	Temperature *float64
	MaxTokens   int
}

// Option sets a CallOptions field.
type Option func(*CallOptions)

// WithTemperature sets the sampling temperature for one call.
func WithTemperature(t float64) Option {
	return func(o *CallOptions) { o.Temperature = &t }
}

// WithMaxTokens sets the completion budget for one call.
func WithMaxTokens(n int) Option {
	return func(o *CallOptions) { o.MaxTokens = n }
}

// Collect applies opts to an empty CallOptions.
func Collect(opts []Option) CallOptions {
	var o CallOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// resolve fills unset options from client defaults.
func resolve(opts []Option, temperature float64, maxTokens int) (float64, int) {
	o := Collect(opts)
	if o.Temperature != nil {
		temperature = *o.Temperature
	}
	if o.MaxTokens > 0 {
		maxTokens = o.MaxTokens
	}
	return temperature, maxTokens
}
