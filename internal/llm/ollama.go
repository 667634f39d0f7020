// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/pdf-summarizer/internal/httputil"
	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

// Ollama defaults.
const (
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaModel   = "llama3"
)

// maxResponseSize limits the response body read from a provider.
const maxResponseSize = 10 * 1024 * 1024

// OllamaClient calls a local Ollama server through its native REST API.
type OllamaClient struct {
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	doer        httputil.Doer
}

// NewOllamaClient builds a client from the provider settings. A nil doer
// uses http.DefaultClient with rate-limit retry.
func NewOllamaClient(cfg types.ModelConfig, doer httputil.Doer) *OllamaClient {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultOllamaBaseURL
	}
	model := cfg.ModelName
	if model == "" {
		model = DefaultOllamaModel
	}
	if doer == nil {
		doer = &httputil.RetryingDoer{}
	}
	return &OllamaClient{
		baseURL:     strings.TrimRight(base, "/"),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		doer:        doer,
	}
}

// Name implements Client.
func (o *OllamaClient) Name() string { return string(types.ProviderOllama) }

// Model implements Client.
func (o *OllamaClient) Model() string { return o.model }

// BaseURL returns the server address without a trailing slash.
func (o *OllamaClient) BaseURL() string { return o.baseURL }

// Settings implements Client.
func (o *OllamaClient) Settings() Settings {
	return Settings{BaseURL: o.baseURL, Temperature: o.temperature, MaxTokens: o.maxTokens}
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Generate posts the prompt to /api/generate.
func (o *OllamaClient) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	req := ollamaGenerateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Options: o.options(opts),
	}
	var resp ollamaGenerateResponse
	if err := o.post(ctx, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Response) == "" {
		return "", NewTransientError(errors.New("ollama returned an empty reply"))
	}
	return resp.Response, nil
}

// Chat posts the conversation to /api/chat.
func (o *OllamaClient) Chat(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	if len(messages) == 0 {
		return "", NewFatalError(errors.New("at least one message is required"))
	}
	req := ollamaChatRequest{
		Model:    o.model,
		Messages: messages,
		Options:  o.options(opts),
	}
	var resp ollamaChatResponse
	if err := o.post(ctx, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return "", NewTransientError(errors.New("ollama returned an empty reply"))
	}
	return resp.Message.Content, nil
}

// Validate checks that the server answers /api/tags and has the model pulled.
func (o *OllamaClient) Validate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return NewFatalError(fmt.Errorf("creating request: %w", err))
	}
	body, err := o.do(req)
	if err != nil {
		return err
	}

	var tags ollamaTagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return NewFatalError(fmt.Errorf("decoding ollama tags: %w", err))
	}
	for _, m := range tags.Models {
		if m.Name == o.model || strings.TrimSuffix(m.Name, ":latest") == o.model {
			return nil
		}
	}
	return NewFatalError(fmt.Errorf("model %s is not pulled on %s (run: ollama pull %s)", o.model, o.baseURL, o.model))
}

func (o *OllamaClient) options(opts []Option) ollamaOptions {
	temperature, maxTokens := resolve(opts, o.temperature, o.maxTokens)
	return ollamaOptions{Temperature: temperature, NumPredict: maxTokens}
}

func (o *OllamaClient) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return NewFatalError(fmt.Errorf("marshaling request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return NewFatalError(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := o.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return NewTransientError(fmt.Errorf("decoding ollama response: %w", err))
	}
	return nil
}

func (o *OllamaClient) do(req *http.Request) ([]byte, error) {
	resp, err := o.doer.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, NewTransientError(fmt.Errorf("ollama request to %s failed (is `ollama serve` running?): %w", o.baseURL, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("reading ollama response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(string(types.ProviderOllama), resp.StatusCode, body)
	}
	return body, nil
}
