// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/pdf-summarizer/internal/httputil"
	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

// Groq defaults.
const (
	DefaultGroqBaseURL   = "https://api.groq.com/openai/v1"
	DefaultGroqModel     = "llama-3.3-70b-versatile"
	DefaultGroqMaxTokens = 2000
)

// ErrMissingAPIKey is returned when a Groq client is built without a key.
var ErrMissingAPIKey = errors.New("GROQ_API_KEY not found. Set it in .env file or use --api-key")

// groqMinTemperature stands in for 0. The request struct omits a zero
// temperature, which would let the server apply its own default of 1.
const groqMinTemperature float32 = 1e-8

// GroqClient calls Groq's OpenAI-compatible chat completions API.
type GroqClient struct {
	api         *openai.Client
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
}

// NewGroqClient builds a client from the provider settings. HTTP requests
// go through doer; a nil doer uses http.DefaultClient with rate-limit retry.
func NewGroqClient(cfg types.ModelConfig, doer httputil.Doer) (*GroqClient, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, NewFatalError(ErrMissingAPIKey)
	}

	oc := openai.DefaultConfig(key)
	oc.BaseURL = DefaultGroqBaseURL
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if doer == nil {
		doer = &httputil.RetryingDoer{}
	}
	oc.HTTPClient = doer

	model := cfg.ModelName
	if model == "" {
		model = DefaultGroqModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultGroqMaxTokens
	}

	return &GroqClient{
		api:         openai.NewClientWithConfig(oc),
		baseURL:     oc.BaseURL,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Name implements Client.
func (g *GroqClient) Name() string { return string(types.ProviderGroq) }

// Model implements Client.
func (g *GroqClient) Model() string { return g.model }

// Settings implements Client.
func (g *GroqClient) Settings() Settings {
	return Settings{BaseURL: g.baseURL, Temperature: g.temperature, MaxTokens: g.maxTokens}
}

// Generate sends prompt as a single user message.
func (g *GroqClient) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	return g.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, opts...)
}

// Chat implements Client.
func (g *GroqClient) Chat(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	if len(messages) == 0 {
		return "", NewFatalError(errors.New("at least one message is required"))
	}
	temperature, maxTokens := resolve(opts, g.temperature, g.maxTokens)

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
		Temperature: float32(temperature),
		MaxTokens:   maxTokens,
	}
	if req.Temperature == 0 {
		req.Temperature = groqMinTemperature
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := g.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(ctx, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", NewTransientError(errors.New("groq returned an empty reply"))
	}
	return resp.Choices[0].Message.Content, nil
}

// Validate lists the models available to the key.
func (g *GroqClient) Validate(ctx context.Context) error {
	list, err := g.api.ListModels(ctx)
	if err != nil {
		return classifyOpenAIError(ctx, err)
	}
	for _, m := range list.Models {
		if m.ID == g.model {
			return nil
		}
	}
	return NewFatalError(fmt.Errorf("model %s is not available on groq", g.model))
}

// classifyOpenAIError maps go-openai errors onto TransientError and FatalError.
// Context errors pass through unchanged.
func classifyOpenAIError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyHTTPError(string(types.ProviderGroq), apiErr.HTTPStatusCode, []byte(apiErr.Message))
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyHTTPError(string(types.ProviderGroq), reqErr.HTTPStatusCode, []byte(reqErr.Error()))
	}
	return NewTransientError(fmt.Errorf("groq request failed: %w", err))
}
